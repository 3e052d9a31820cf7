package types

import (
	"time"

	"github.com/neurolife88/amo-china/pkg/access"
)

// Profile represents a dashboard user as stored in the profiles table.
// ClinicName is set for coordinators and scopes them to one clinic.
type Profile struct {
	ID         string      `json:"id" db:"id"`
	Email      string      `json:"email" db:"email"`
	FullName   string      `json:"full_name" db:"full_name"`
	Role       access.Role `json:"role" db:"role"`
	ClinicName *string     `json:"clinic_name,omitempty" db:"clinic_name"`
	IsActive   bool        `json:"is_active" db:"is_active"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// UserClaims represents JWT token claims issued by the session provider
type UserClaims struct {
	UserID     string      `json:"user_id"`
	Email      string      `json:"email"`
	Role       access.Role `json:"role"`
	ClinicName string      `json:"clinic_name,omitempty"`
}

// UserContext builds the evaluator input from the claims.
func (c *UserClaims) UserContext() access.UserContext {
	return access.UserContext{
		Role:   c.Role,
		Clinic: c.ClinicName,
		UserID: c.UserID,
	}
}

// Clinic represents a clinic known to the dashboard
type Clinic struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	FullName       *string   `json:"full_name,omitempty" db:"full_name"`
	AddressChinese *string   `json:"address_chinese,omitempty" db:"address_chinese"`
	AddressEnglish *string   `json:"address_english,omitempty" db:"address_english"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
