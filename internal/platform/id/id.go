// Package id generates opaque ledger invocation identifiers.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewInvocationID returns a random UUIDv4 as 26 lowercase base32 characters.
// Every journal entry written by one ledger invocation carries the same id.
func NewInvocationID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate invocation id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}
