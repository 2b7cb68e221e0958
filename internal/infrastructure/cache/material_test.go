package cache

import (
	"testing"
	"time"
)

func TestMaterialStore_AddAndJoin(t *testing.T) {
	ms := NewMaterialStore(time.Hour)

	ms.Add("m1", "chapter one")
	ms.Add("m1", "chapter two")

	got := ms.Material("m1")
	want := "chapter one\n\nchapter two"
	if got != want {
		t.Fatalf("material = %q, want %q", got, want)
	}
}

func TestMaterialStore_WhitespaceIgnored(t *testing.T) {
	ms := NewMaterialStore(time.Hour)

	ms.Add("m1", "   \n\t ")
	if got := ms.Material("m1"); got != "" {
		t.Fatalf("whitespace upload stored: %q", got)
	}
}

func TestMaterialStore_MissingMeeting(t *testing.T) {
	ms := NewMaterialStore(time.Hour)
	if got := ms.Material("ghost"); got != "" {
		t.Fatalf("expected empty material, got %q", got)
	}
}

func TestMaterialStore_Expiry(t *testing.T) {
	ms := NewMaterialStore(10 * time.Millisecond)

	ms.Add("m1", "short lived")
	time.Sleep(30 * time.Millisecond)

	if got := ms.Material("m1"); got != "" {
		t.Fatalf("expired material still served: %q", got)
	}
}

func TestMaterialStore_Delete(t *testing.T) {
	ms := NewMaterialStore(time.Hour)

	ms.Add("m1", "something")
	ms.Delete("m1")
	if got := ms.Material("m1"); got != "" {
		t.Fatalf("deleted material still served: %q", got)
	}
}
