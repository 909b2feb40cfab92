package profile

import (
	"fmt"

	"github.com/wichananm65/craftisland/internal/apperr"
)

// Profile maps to the `profiles` table. ID is the owning user's id.
type Profile struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Location    string `json:"location"`
	HomeAddress string `json:"homeAddress"`
}

// Patch carries the fields a caller wants to change; nil means untouched.
type Patch struct {
	FullName    *string `json:"fullName,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Location    *string `json:"location,omitempty"`
	HomeAddress *string `json:"homeAddress,omitempty"`
}

// Apply merges the non-nil fields of patch into p.
func (p Profile) Apply(patch Patch) Profile {
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.HomeAddress != nil {
		p.HomeAddress = *patch.HomeAddress
	}
	return p
}

var ErrNotFound = fmt.Errorf("profile %w", apperr.ErrNotFound)
