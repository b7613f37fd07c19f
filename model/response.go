package model

// LoginResponse is the data section of a successful login or email verification.
type LoginResponse struct {
	User        Profile `json:"user"`
	AccessToken string  `json:"accessToken"`
}

// RefreshResponse is the data section of a successful refresh exchange.
type RefreshResponse struct {
	NewAccessToken string `json:"newAccessToken"`
	RefreshToken   string `json:"refreshToken"`
}

// OTPVerification is the outcome of an OTP check.
type OTPVerification struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}
