// Package studio defines the core domain types shared by the session,
// auth and registration packages. It has zero external dependencies.
package studio

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleCoordinator Role = "coordinator"
	RoleJudge       Role = "judge"
)

// ParseRole returns the role named by s.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleParticipant, RoleCoordinator, RoleJudge:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the minimal reference to an identity-provider user. The
// provider owns the full record; the session only keeps these fields.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Anonymous   bool   `json:"anonymous,omitempty"`
}

// ProfileDraft holds identity data collected before sign-in completes.
type ProfileDraft struct {
	FullName     string `json:"fullName,omitempty"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	CountryCode  string `json:"countryCode,omitempty"`
}

// Merge returns d with every non-empty field of patch applied on top.
func (d ProfileDraft) Merge(patch ProfileDraft) ProfileDraft {
	if patch.FullName != "" {
		d.FullName = patch.FullName
	}
	if patch.Email != "" {
		d.Email = patch.Email
	}
	if patch.MobileNumber != "" {
		d.MobileNumber = patch.MobileNumber
	}
	if patch.CountryCode != "" {
		d.CountryCode = patch.CountryCode
	}
	return d
}

type Hackathon struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Location      string    `json:"location"`
	Deadline      string    `json:"deadline"`
	Image         string    `json:"image"`
	Registrations int       `json:"registrations"`
	CreatedAt     time.Time `json:"-"`
}

// PersonalDetails is the stage-1 registration payload.
type PersonalDetails struct {
	FullName               string `json:"fullName" validate:"min=2" msg:"Please enter your full name"`
	Email                  string `json:"email" validate:"required,email" msg:"Please enter a valid email address"`
	Phone                  string `json:"phone" validate:"min=10" msg:"Please enter a valid phone number"`
	Gender                 string `json:"gender" validate:"required,oneof=male female other prefer-not-to-say" msg:"Please select your gender"`
	Bio                    string `json:"bio" validate:"min=10" msg:"Please write at least 10 characters"`
	City                   string `json:"city" validate:"min=2" msg:"Please enter your city"`
	EmergencyContactName   string `json:"emergencyContactName" validate:"min=2" msg:"Please enter emergency contact name"`
	EmergencyContactNumber string `json:"emergencyContactNumber" validate:"min=10" msg:"Please enter emergency contact number"`
	LinkedinURL            string `json:"linkedinUrl" validate:"omitempty,url" msg:"Please enter a valid LinkedIn URL"`
	GithubURL              string `json:"githubUrl" validate:"omitempty,url" msg:"Please enter a valid GitHub URL"`
}

// Education is the stage-2 registration payload.
type Education struct {
	DegreeType      string `json:"degreeType" validate:"required,oneof=high-school associate bachelor master phd other" msg:"Please select your degree type"`
	College         string `json:"college" validate:"min=2" msg:"Please enter your college/university name"`
	Major           string `json:"major" validate:"min=2" msg:"Please enter your major/field of study"`
	GraduationMonth string `json:"graduationMonth" validate:"required,oneof=january february march april may june july august september october november december" msg:"Please select graduation month"`
	GraduationYear  string `json:"graduationYear" validate:"len=4,numeric" msg:"Please select graduation year"`
}

// PersonalRecord is what stage 1 writes to the personal slot.
type PersonalRecord struct {
	PersonalDetails
	HackathonID string `json:"hackathonId"`
}

// Registration is the complete record assembled by stage 2.
type Registration struct {
	PersonalRecord
	Education Education `json:"education"`
}
