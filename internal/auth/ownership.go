package auth

import (
	"fmt"

	"github.com/felixgeelhaar/academiax/internal/domain"
)

// ErrOwnershipMismatch is returned when the email a request acts on differs
// from the authenticated identity.
var ErrOwnershipMismatch = fmt.Errorf("email does not match authenticated identity: %w", domain.ErrOwnershipMismatch)

// CheckOwnership reports whether the authenticated identity may act on
// resources owned by supplied. Equality is exact; a missing email never matches.
func CheckOwnership(id Identity, supplied string) error {
	if supplied == "" || supplied != id.Email {
		return ErrOwnershipMismatch
	}
	return nil
}
