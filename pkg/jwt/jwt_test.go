package jwt

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue("m1", "alice", "Alice", "participant", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.MeetingID != "m1" || claims.UserID != "alice" || claims.Role != "participant" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("token missing jti")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Issue("m1", "alice", "", "participant", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := NewManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatalf("token verified with wrong secret")
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	token, err := m.Issue("m1", "alice", "", "participant", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expired token verified")
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	if _, err := m.Verify("not-a-token"); err == nil {
		t.Fatalf("garbage token verified")
	}
}

func TestIssue_PreviewAsCarried(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.Issue("m1", "teach", "Teacher", "instructor", "alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Role != "instructor" || claims.PreviewAs != "alice" {
		t.Fatalf("preview-as lost: %+v", claims)
	}
}
