package leads

import (
	"strings"
	"time"
)

// Lead is a potential customer identified by contact data collected from
// widget conversations (or an external scraping feed writing to the same table).
type Lead struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Company      string    `json:"company"`
	Requirements string    `json:"requirements"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ContactInfo is the contact data carried by one chat turn, either supplied
// by the visitor or extracted from their message.
type ContactInfo struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Company      string `json:"company"`
	Requirements string `json:"requirements"`
}

// HasContact reports whether any identifying field is present.
func (c ContactInfo) HasContact() bool {
	return c.Email != "" || c.Phone != "" || c.Name != ""
}

// Sanitize normalizes every field in place and returns the result.
func (c ContactInfo) Sanitize() ContactInfo {
	return ContactInfo{
		Name:         strings.TrimSpace(c.Name),
		Email:        NormalizeEmail(c.Email),
		Phone:        NormalizePhone(c.Phone),
		Company:      strings.TrimSpace(c.Company),
		Requirements: strings.TrimSpace(c.Requirements),
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything except digits and a leading plus sign.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Merge applies incoming contact data to the lead additively: an incoming
// non-empty field overwrites, an empty one leaves the existing value alone.
// Returns true when any field changed.
func (l *Lead) Merge(in ContactInfo) bool {
	in = in.Sanitize()
	changed := false
	apply := func(dst *string, src string) {
		if src != "" && src != *dst {
			*dst = src
			changed = true
		}
	}
	apply(&l.Name, in.Name)
	apply(&l.Email, in.Email)
	apply(&l.Phone, in.Phone)
	apply(&l.Company, in.Company)
	apply(&l.Requirements, in.Requirements)
	return changed
}
