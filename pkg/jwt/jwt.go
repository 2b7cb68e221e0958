package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies panel tokens.
type Manager struct {
	secret []byte
	expiry time.Duration
}

// NewManager creates a panel token manager.
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expiry: expiry}
}

// Issue mints a signed panel token for one listener.
func (m *Manager) Issue(meetingID, userID, displayName, role, previewAs string) (string, error) {
	now := time.Now()
	claims := PanelClaims{
		MeetingID:   meetingID,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
		PreviewAs:   previewAs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a panel token, returning its claims.
func (m *Manager) Verify(tokenString string) (*PanelClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PanelClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*PanelClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid panel token")
	}
	return claims, nil
}
