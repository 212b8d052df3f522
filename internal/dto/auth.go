package dto

import (
	"time"

	"github.com/noah-isme/eduportal-api/internal/models"
)

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Email     string          `json:"email" validate:"required"`
	Password  string          `json:"password" validate:"required,min=6"`
	FirstName string          `json:"firstName" validate:"required"`
	LastName  string          `json:"lastName" validate:"required"`
	Role      models.UserRole `json:"role" validate:"required"`
	Phone     *string         `json:"phone,omitempty"`
	SchoolID  *string         `json:"schoolId,omitempty"`
	IP        string          `json:"-"`
	UserAgent string          `json:"-"`
}

// RegisterResponse is returned with 201 after the account and its profile are committed.
type RegisterResponse struct {
	UserID        string          `json:"userId"`
	Email         string          `json:"email"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Role          models.UserRole `json:"role"`
	ProfileID     *string         `json:"profileId,omitempty"`
	StudentNumber *string         `json:"studentNumber,omitempty"`
}

// LoginRequest carries credentials plus request metadata for auditing.
type LoginRequest struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse is the issued session.
type LoginResponse struct {
	AccessToken string          `json:"accessToken"`
	ExpiresIn   int64           `json:"expiresIn"`
	IssuedAt    time.Time       `json:"issuedAt"`
	User        models.Identity `json:"user"`
}

// MeResponse describes the resolved session of the caller.
type MeResponse struct {
	User             models.Identity `json:"user"`
	TeacherProfileID *string         `json:"teacherProfileId,omitempty"`
	StudentProfileID *string         `json:"studentProfileId,omitempty"`
	ParentProfileID  *string         `json:"parentProfileId,omitempty"`
	SchoolID         *string         `json:"schoolId,omitempty"`
	DistrictID       *string         `json:"districtId,omitempty"`
}
