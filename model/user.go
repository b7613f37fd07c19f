package model

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleBlocked Role = "blocked"
)

// User is the authenticated subject. The OTP fields are owned by the OTP service.
type User struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	AadharNo   string    `json:"aadhar_no,omitempty"`
	LicenseNo  string    `json:"license_no,omitempty"`
	GSTNo      string    `json:"gst_no,omitempty"`
	MobileNo   string    `json:"mobile_no,omitempty"`
	Image      string    `json:"image,omitempty"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`

	OTPHash                  string     `json:"-"`
	OTPSendTime              *time.Time `json:"-"`
	OTPWindowStart           *time.Time `json:"-"`
	OTPAttemptCount          int        `json:"-"`
	VerificationAttemptCount int        `json:"-"`
	VerificationTime         *time.Time `json:"-"`

	IsDeleted         bool       `json:"-"`
	DeleteRequestedAt *time.Time `json:"-"`
}

// Profile is the public view of a user returned by the API.
type Profile struct {
	Name string `json:"name"`
}
