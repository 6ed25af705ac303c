// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package roster

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/danielhkuo/classvote/models"
)

// DefaultCountryCode is prefixed to bare 10-digit phone numbers.
const DefaultCountryCode = "91"

const minPhoneDigits = 10

var (
	ErrMissingContact = errors.New("missing contact")
	ErrMalformedEmail = errors.New("malformed email address")
	ErrMalformedPhone = errors.New("phone number must have at least 10 digits")
)

// NormalizeContact canonicalizes an email or phone contact so identity
// lookups are exact matches. Emails are lowercased; phone numbers become
// "+<country code><10 digits>".
func NormalizeContact(raw, countryCode string) (string, error) {
	c := strings.TrimSpace(raw)
	if c == "" {
		return "", ErrMissingContact
	}

	if strings.Contains(c, "@") {
		addr, err := mail.ParseAddress(c)
		if err != nil || addr.Name != "" || addr.Address != c {
			return "", ErrMalformedEmail
		}
		return strings.ToLower(addr.Address), nil
	}

	return normalizePhone(c, countryCode)
}

func normalizePhone(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) < minPhoneDigits:
		return "", ErrMalformedPhone
	case len(digits) == minPhoneDigits:
		return "+" + countryCode + digits, nil
	case strings.HasPrefix(digits, countryCode) && len(digits) == len(countryCode)+minPhoneDigits:
		return "+" + digits, nil
	default:
		return "+" + countryCode + digits[len(digits)-minPhoneDigits:], nil
	}
}

// NormalizeIdentity canonicalizes an identity presented at vote time. Values
// that are not valid contacts are only trimmed and lowercased, so they can
// still fail lookup as "not registered" rather than as malformed input.
func NormalizeIdentity(raw, countryCode string) string {
	if c, err := NormalizeContact(raw, countryCode); err == nil {
		return c
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeGender maps common spellings onto the canonical quota values and
// leaves anything else as entered.
func NormalizeGender(g string) string {
	g = strings.TrimSpace(g)
	switch strings.ToLower(g) {
	case "male", "m":
		return models.GenderMale
	case "female", "f":
		return models.GenderFemale
	}
	return g
}
