package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewInvocationIDIsLowerBase32UUID(t *testing.T) {
	t.Parallel()

	got, err := NewInvocationID()
	if err != nil {
		t.Fatalf("new invocation id: %v", err)
	}
	if len(got) != 26 {
		t.Fatalf("len = %d, want 26", len(got))
	}
	if strings.ToLower(got) != got {
		t.Fatalf("id = %q, want lowercase", got)
	}
	raw, err := encoding.DecodeString(strings.ToUpper(got))
	if err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		t.Fatalf("uuid from bytes: %v", err)
	}
	if u.Version() != 4 || u.Variant() != uuid.RFC4122 {
		t.Fatalf("uuid = version %d variant %s, want random RFC 4122", u.Version(), u.Variant())
	}
}

func TestNewInvocationIDIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		got, err := NewInvocationID()
		if err != nil {
			t.Fatalf("new invocation id: %v", err)
		}
		if seen[got] {
			t.Fatalf("duplicate id %q", got)
		}
		seen[got] = true
	}
}
