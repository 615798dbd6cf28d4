package idgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID_IsUUID(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("NewID() error: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("NewID() = %q, not a UUID: %v", id, err)
	}
}

func TestNewLogID_Charset(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	for i := 0; i < 100; i++ {
		id, err := NewLogID()
		if err != nil {
			t.Fatalf("NewLogID() error on iteration %d: %v", i, err)
		}
		if len(id) != LogIDLength {
			t.Fatalf("NewLogID() length = %d, want %d", len(id), LogIDLength)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("NewLogID() = %q, does not match expected charset pattern", id)
		}
	}
}

func TestUniqueness(t *testing.T) {
	const count = 10_000
	ids := make(map[string]struct{}, count)
	logIDs := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID() error: %v", err)
		}
		if _, dup := ids[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		ids[id] = struct{}{}

		logID, err := NewLogID()
		if err != nil {
			t.Fatalf("NewLogID() error: %v", err)
		}
		if _, dup := logIDs[logID]; dup {
			t.Fatalf("duplicate log ID after %d generations: %q", i, logID)
		}
		logIDs[logID] = struct{}{}
	}
}

func TestNewSecret(t *testing.T) {
	s, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret() error: %v", err)
	}
	if !strings.HasPrefix(s, SecretPrefix) {
		t.Errorf("NewSecret() = %q, want prefix %q", s, SecretPrefix)
	}
	if want := len(SecretPrefix) + SecretLength; len(s) != want {
		t.Errorf("NewSecret() length = %d, want %d", len(s), want)
	}
}
