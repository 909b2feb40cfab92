// Package settings stores small shop-wide values such as the contact details
// shown at checkout.
package settings

import (
	"regexp"
	"strings"
)

// ContactInfo is shown to customers next to the checkout form.
type ContactInfo struct {
	Instagram string `json:"instagram"`
	WhatsApp  string `json:"whatsapp"`
	Email     string `json:"email"`
}

type ContactPatch struct {
	Instagram *string `json:"instagram,omitempty"`
	WhatsApp  *string `json:"whatsapp,omitempty"`
	Email     *string `json:"email,omitempty"`
}

func (c ContactInfo) Apply(p ContactPatch) ContactInfo {
	if p.Instagram != nil {
		c.Instagram = strings.TrimSpace(*p.Instagram)
	}
	if p.WhatsApp != nil {
		c.WhatsApp = strings.TrimSpace(*p.WhatsApp)
	}
	if p.Email != nil {
		c.Email = strings.TrimSpace(*p.Email)
	}
	return c
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// InstagramURL accepts either a full link or an @handle.
func (c ContactInfo) InstagramURL() string {
	if c.Instagram == "" {
		return ""
	}
	if strings.HasPrefix(c.Instagram, "http") {
		return c.Instagram
	}
	return "https://instagram.com/" + strings.ReplaceAll(c.Instagram, "@", "")
}

func (c ContactInfo) WhatsAppURL() string {
	digits := nonDigits.ReplaceAllString(c.WhatsApp, "")
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}

// Keys used in the site_settings table.
const (
	KeyContact       = "contact_info"
	KeyOwnerPasscode = "owner_passcode"
)
