package forms

import (
	"strings"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/studio"
)

const DefaultCountryCode = "+1"

type SignUp struct {
	FullName     string `json:"fullName" validate:"min=2" msg:"Please enter your full name"`
	Email        string `json:"email" validate:"required,email" msg:"Please enter a valid email address"`
	CountryCode  string `json:"countryCode" validate:"oneof=+1 +44 +91" msg:"Please select a country code"`
	MobileNumber string `json:"mobileNumber" validate:"min=10,numeric" msg:"Please enter a valid mobile number"`
}

// Normalize trims input and fills the default country code.
func (f *SignUp) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.MobileNumber = strings.TrimSpace(f.MobileNumber)
	if f.CountryCode == "" {
		f.CountryCode = DefaultCountryCode
	}
}

func (f SignUp) Draft() studio.ProfileDraft {
	return studio.ProfileDraft{
		FullName:     f.FullName,
		Email:        f.Email,
		MobileNumber: f.MobileNumber,
		CountryCode:  f.CountryCode,
	}
}

type SignIn struct {
	Email string `json:"email" validate:"required,email" msg:"Please enter a valid email address"`
}

func (f *SignIn) Normalize() {
	f.Email = strings.TrimSpace(f.Email)
}
