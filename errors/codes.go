package errors

// ErrorCode identifies a category of application error. Codes are stable
// integers so clients can switch on them without parsing messages.
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_FORBIDDEN        ErrorCode = 1004
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1005

	// Meetings
	ErrorCode_MEETING_NOT_FOUND  ErrorCode = 2000
	ErrorCode_MEETING_ENDED      ErrorCode = 2001
	ErrorCode_MISSING_MEETING_ID ErrorCode = 2002
	ErrorCode_NO_TRANSCRIPT      ErrorCode = 2003

	// Agents
	ErrorCode_AGENT_FAILED           ErrorCode = 3000
	ErrorCode_AGENT_UNAVAILABLE      ErrorCode = 3001
	ErrorCode_QUIZ_GENERATION_FAILED ErrorCode = 3002
	ErrorCode_NOTES_FAILED           ErrorCode = 3003

	// Auth / tokens
	ErrorCode_INVALID_TOKEN ErrorCode = 4000
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                "OK",
	ErrorCode_INTERNAL:               "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:       "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:              "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:         "ALREADY_EXISTS",
	ErrorCode_FORBIDDEN:              "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:        "INVALID_PAYLOAD",
	ErrorCode_MEETING_NOT_FOUND:      "MEETING_NOT_FOUND",
	ErrorCode_MEETING_ENDED:          "MEETING_ENDED",
	ErrorCode_MISSING_MEETING_ID:     "MISSING_MEETING_ID",
	ErrorCode_NO_TRANSCRIPT:          "NO_TRANSCRIPT",
	ErrorCode_AGENT_FAILED:           "AGENT_FAILED",
	ErrorCode_AGENT_UNAVAILABLE:      "AGENT_UNAVAILABLE",
	ErrorCode_QUIZ_GENERATION_FAILED: "QUIZ_GENERATION_FAILED",
	ErrorCode_NOTES_FAILED:           "NOTES_FAILED",
	ErrorCode_INVALID_TOKEN:          "INVALID_TOKEN",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
