// Package pincode manages the allow-list of postal codes the shop delivers to.
package pincode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wichananm65/craftisland/internal/apperr"
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Validate trims code and checks it is exactly six digits.
func Validate(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return "", apperr.Validation("pincode must be exactly 6 digits")
	}
	return code, nil
}

// Contains reports whether code is in the allow-list.
func Contains(allowed []string, code string) bool {
	code = strings.TrimSpace(code)
	for _, c := range allowed {
		if c == code {
			return true
		}
	}
	return false
}

// CheckServiceable returns ErrOutOfServiceArea naming the allowed codes. An
// empty allow-list accepts every code.
func CheckServiceable(allowed []string, code string) error {
	if len(allowed) == 0 || Contains(allowed, code) {
		return nil
	}
	return fmt.Errorf("%w: Sorry, we currently do not deliver to Pincode: %s. Allowed: %s",
		apperr.ErrOutOfServiceArea, strings.TrimSpace(code), strings.Join(allowed, ", "))
}
