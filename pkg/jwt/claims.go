package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// PanelClaims identify one listener on a meeting's push channel. Role is
// "instructor" or "participant"; PreviewAs lets an instructor see the
// nudges a given participant would see.
type PanelClaims struct {
	MeetingID   string `json:"meetingId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role"`
	PreviewAs   string `json:"previewAs,omitempty"`
	jwt.RegisteredClaims
}
