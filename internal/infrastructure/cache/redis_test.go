package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestTokenKey(t *testing.T) {
	userID := uuid.MustParse("7d2b8a64-3f1e-4c61-9a3b-2f7c8e1d5a90")
	got := TokenKey("refresh", userID, "abc")
	if want := "refresh_token:7d2b8a64-3f1e-4c61-9a3b-2f7c8e1d5a90:abc"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRevoke_NoIDsIsNoop(t *testing.T) {
	// no Redis round trip when there is nothing to revoke
	store := NewTokenStore(nil)
	if err := store.Revoke(context.Background(), "access", uuid.New(), "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
