package identity

import (
	"errors"
	"testing"

	"github.com/seenimoa/flightdesk/pkg/models"
)

func TestNormalizeAadhaar(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"123456789012", "1234-5678-9012", false},
		{"1234 5678 9012", "1234-5678-9012", false},
		{"1234-5678-9012", "1234-5678-9012", false},
		{" 1234-5678 9012 ", "1234-5678-9012", false},
		{"12345678901", "", true},
		{"1234567890123", "", true},
		{"12345678901a", "", true},
		{"", "", true},
		{"१२३४५६७८९०१२", "", true}, // non-ASCII digits
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Normalize(models.Aadhaar, tt.raw)
			if tt.wantErr {
				if !errors.Is(err, models.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once, err := Normalize(models.Aadhaar, "123456789012")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Normalize(models.Aadhaar, once)
	if err != nil || twice != once {
		t.Errorf("normalizing a normalized value: %q, %v", twice, err)
	}
}

func TestNormalizeOtherTypesPassThrough(t *testing.T) {
	for _, typ := range []models.IDType{models.Passport, models.DrivingLicense} {
		got, err := Normalize(typ, " z1234567 ")
		if err != nil || got != " z1234567 " {
			t.Errorf("%s: got %q, %v", typ, got, err)
		}
	}
}

func TestNew(t *testing.T) {
	id, err := New(models.Aadhaar, "1234 5678 9012")
	if err != nil {
		t.Fatal(err)
	}
	if id.Type != models.Aadhaar || id.Raw != "1234 5678 9012" || id.Normalized != DemoAadhaar {
		t.Errorf("unexpected identity: %+v", id)
	}
	if _, err := New(models.Aadhaar, "12"); err == nil {
		t.Error("short AADHAAR accepted")
	}
}

func TestParseIDType(t *testing.T) {
	tests := map[string]models.IDType{
		"1":               models.Aadhaar,
		"":                models.Aadhaar,
		"2":               models.Passport,
		"passport":        models.Passport,
		"3":               models.DrivingLicense,
		"driving license": models.DrivingLicense,
		"9":               models.Aadhaar,
	}
	for in, want := range tests {
		if got := ParseIDType(in); got != want {
			t.Errorf("ParseIDType(%q) = %s, want %s", in, got, want)
		}
	}
}
