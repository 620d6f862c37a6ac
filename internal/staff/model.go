package staff

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Role scopes a staff member to one workspace of the bakery.
type Role string

const (
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
	RoleAdmin   Role = "admin"
)

// PINLength is the number of digits in every staff PIN.
const PINLength = 4

// Identity is a directory record binding a display name, a role and a PIN.
type Identity struct {
	ID   string
	Name string
	Role Role
	PIN  string
}

// ParseRole maps a role name in any case onto a known Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleWaiter, RoleKitchen, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// ValidPIN reports whether pin is exactly PINLength ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// NameKey folds a display name into the form directories match on, so that
// "Élodie" and "ÉLODIE" resolve to the same member on every backend.
func NameKey(name string) string {
	return cases.Fold().String(name)
}
