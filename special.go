package crudgen

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/aretw0/crudgen/pkg/value"
	"github.com/google/uuid"
)

// SpecialCheck validates a field value against a special property. It runs
// only after the value passed the structural checks of its definition.
type SpecialCheck func(v any) error

var errNotText = errors.New("expected text")

// CheckEmail accepts a bare RFC 5322 address such as "ada@example.com".
// Display names ("Ada <ada@example.com>") are rejected.
func CheckEmail(v any) error {
	s, ok := value.Of(v).Text()
	if !ok {
		return errNotText
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if addr.Name != "" || addr.Address != s {
		return fmt.Errorf("invalid email address: %q is not a bare address", s)
	}
	return nil
}

// CheckUUID accepts textual UUIDs such as "6ba7b810-9dad-11d1-80b4-00c04fd430c8".
func CheckUUID(v any) error {
	s, ok := value.Of(v).Text()
	if !ok {
		return errNotText
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid uuid: %w", err)
	}
	return nil
}

// textSpecials are the built-in checks that only apply to string fields. On
// other content types the tag is carried through unchecked.
var textSpecials = map[string]bool{
	"email": true,
	"uuid":  true,
}

func defaultSpecials() map[string]SpecialCheck {
	return map[string]SpecialCheck{
		"email": CheckEmail,
		"uuid":  CheckUUID,
	}
}
