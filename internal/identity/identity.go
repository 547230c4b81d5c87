// Package identity validates and normalizes passenger government IDs.
package identity

import (
	"fmt"
	"strings"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// DemoAadhaar is used when the user leaves the AADHAAR prompt empty.
const DemoAadhaar = "1234-5678-9012"

const aadhaarDigits = 12

// Normalize validates raw for the given ID type. AADHAAR numbers have
// dashes and spaces stripped, must be exactly 12 ASCII digits, and are
// returned as dddd-dddd-dddd. Other types are returned unchanged.
func Normalize(idType models.IDType, raw string) (string, error) {
	if idType != models.Aadhaar {
		return raw, nil
	}
	digits := strings.NewReplacer("-", "", " ", "").Replace(raw)
	if len(digits) != aadhaarDigits {
		return "", fmt.Errorf("%w: AADHAAR number must have %d digits, got %d characters",
			models.ErrValidation, aadhaarDigits, len(digits))
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", fmt.Errorf("%w: AADHAAR number must contain only digits", models.ErrValidation)
		}
	}
	return digits[0:4] + "-" + digits[4:8] + "-" + digits[8:12], nil
}

// New builds a validated identity.
func New(idType models.IDType, raw string) (models.PassengerIdentity, error) {
	norm, err := Normalize(idType, raw)
	if err != nil {
		return models.PassengerIdentity{}, err
	}
	return models.PassengerIdentity{Type: idType, Raw: raw, Normalized: norm}, nil
}

// ParseIDType maps a menu choice ("1", "2", "3") or a type name to an
// IDType. Anything else selects AADHAAR.
func ParseIDType(choice string) models.IDType {
	c := strings.ToUpper(strings.TrimSpace(choice))
	c = strings.NewReplacer(" ", "_", "-", "_").Replace(c)
	switch c {
	case "2", string(models.Passport):
		return models.Passport
	case "3", string(models.DrivingLicense), "DL":
		return models.DrivingLicense
	}
	return models.Aadhaar
}

// Menu is the ID-type prompt shown to the user.
const Menu = "ID type: 1) AADHAAR  2) PASSPORT  3) DRIVING_LICENSE"
