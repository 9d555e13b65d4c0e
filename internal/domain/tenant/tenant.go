// Package tenant defines the (project, user) scope every stored record belongs to.
package tenant

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode"

	"github.com/kailas-cloud/lograg/internal/domain"
)

// MaxIDLength is the maximum length of a project or user identifier.
const MaxIDLength = 128

// Key identifies a tenant. The zero Key is invalid and never reaches storage.
type Key struct {
	projectID string
	userID    string
}

// New validates and creates a tenant Key.
func New(projectID, userID string) (Key, error) {
	if err := validateID("project id", projectID); err != nil {
		return Key{}, err
	}
	if err := validateID("user id", userID); err != nil {
		return Key{}, err
	}
	return Key{projectID: projectID, userID: userID}, nil
}

// MustNew is New for tests and constants; it panics on invalid input.
func MustNew(projectID, userID string) Key {
	k, err := New(projectID, userID)
	if err != nil {
		panic(err)
	}
	return k
}

// ProjectID returns the project identifier.
func (k Key) ProjectID() string { return k.projectID }

// UserID returns the user identifier.
func (k Key) UserID() string { return k.userID }

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool { return k.projectID == "" || k.userID == "" }

// Validate returns ErrTenantIsolation for a zero key.
func (k Key) Validate() error {
	if k.IsZero() {
		return fmt.Errorf("tenant key is required: %w", domain.ErrTenantIsolation)
	}
	return nil
}

// Tag is a stable 32-char hex digest of the key. It is safe to use inside
// storage keys and as an index TAG value without escaping.
func (k Key) Tag() string {
	h := sha256.Sum256([]byte(k.projectID + "\x00" + k.userID))
	return hex.EncodeToString(h[:16])
}

// String returns "project/user" for logs.
func (k Key) String() string { return k.projectID + "/" + k.userID }

func validateID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%s is required: %w", name, domain.ErrTenantIsolation)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s too long (max %d): %w", name, MaxIDLength, domain.ErrTenantIsolation)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%s contains control characters: %w", name, domain.ErrTenantIsolation)
		}
	}
	return nil
}
