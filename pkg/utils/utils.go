package utils

import (
	"regexp"
)

var specialCharRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)

// ValidatePassword checks the password against the account policy and
// returns a user-facing reason when it fails.
func ValidatePassword(password string) (bool, string) {
	if len(password) < 6 {
		return false, "Password must be at least 6 characters long"
	}

	if !specialCharRegex.MatchString(password) {
		return false, "Password must contain at least one special character (!@#$%^&* etc.)"
	}

	return true, ""
}
