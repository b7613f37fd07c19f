// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user.
// Either an Aadhar or a GST number must be present.
type RegisterRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=30,strongpassword"`
	AadharNo  string `json:"aadharNo" validate:"required_without=GSTNo,omitempty,aadhar"`
	LicenseNo string `json:"licenseNo" validate:"required,alphanum,max=20"`
	GSTNo     string `json:"gstNo" validate:"required_without=AadharNo,omitempty,gstin"`
	MobileNo  string `json:"mobileNo" validate:"required,mobile"`
	Image     string `json:"image" validate:"omitempty,url"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SendOTPRequest is decoded from the query string of GET /authentication/otp.
type SendOTPRequest struct {
	Email string `validate:"required,email"`
}

// VerifyOTPRequest defines the payload for POST /authentication/otp.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"OTP" validate:"required,numeric,len=6"`
}

// VerifyEmailRequest is decoded from the query string of GET /authentication/register.
type VerifyEmailRequest struct {
	Token string `validate:"required"`
}

// ChangePasswordRequest changes the password either with the old password or with an OTP.
type ChangePasswordRequest struct {
	Password    string `json:"password" validate:"required,min=8,max=30,strongpassword"`
	OldPassword string `json:"oldPassword" validate:"required_without=OTP"`
	OTP         string `json:"otp" validate:"required_without=OldPassword,omitempty,numeric,len=6"`
}

// DeleteAccountRequest submits a deletion request confirmed by an OTP.
type DeleteAccountRequest struct {
	OTP string `json:"otp" validate:"required,numeric,len=6"`
}

// UpdateUserRoleRequest defines the payload for updating a user's role.
type UpdateUserRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=admin user manager blocked"`
}

// UpdateProfileRequest changes one profile field. Changing email or mobileNo
// also requires an OTP.
type UpdateProfileRequest struct {
	Key   string `json:"key" validate:"required,oneof=name email mobileNo image"`
	Value string `json:"value" validate:"required"`
	OTP   string `json:"otp" validate:"omitempty,numeric,len=6"`
}
