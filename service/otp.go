package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"go-medstore-api/model"
	"math/big"
	"time"
)

// sendCooldownSlack is added to the send window when reporting the wait time.
const sendCooldownSlack = 2 * time.Minute

// OTPPolicy holds the limits of the OTP state machine.
type OTPPolicy struct {
	MaxAttempts int
	Window      time.Duration
	CodeTTL     time.Duration
}

func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{
		MaxAttempts: 3,
		Window:      30 * time.Minute,
		CodeTTL:     10 * time.Minute,
	}
}

// beginSend resets an elapsed send window and rejects the send when the budget is used up.
func (p OTPPolicy) beginSend(u *model.User, now time.Time) error {
	if u.OTPWindowStart != nil && now.Sub(*u.OTPWindowStart) > p.Window {
		u.OTPAttemptCount = 0
		u.OTPWindowStart = nil
	}
	if u.OTPAttemptCount >= p.MaxAttempts {
		since := now
		if u.OTPWindowStart != nil {
			since = *u.OTPWindowStart
		}
		return newCooldown(p.Window+sendCooldownSlack, since, now)
	}
	return nil
}

// recordSend stores the hash of a freshly sent code and counts the send.
func (p OTPPolicy) recordSend(u *model.User, codeHash string, now time.Time) {
	u.OTPAttemptCount++
	if u.OTPAttemptCount == 1 || u.OTPWindowStart == nil {
		start := now
		u.OTPWindowStart = &start
	}
	sent := now
	u.OTPSendTime = &sent
	u.OTPHash = codeHash
}

// checkCode applies one verification attempt to u. A wrong or stale code is
// reported as an *OTPError; an exhausted budget as a *CooldownError.
func (p OTPPolicy) checkCode(u *model.User, code string, now time.Time) error {
	if u.VerificationTime != nil && now.Sub(*u.VerificationTime) > p.Window {
		u.VerificationAttemptCount = 0
		u.VerificationTime = nil
	}
	if u.VerificationAttemptCount >= p.MaxAttempts {
		since := now
		if u.VerificationTime != nil {
			since = *u.VerificationTime
		}
		return newCooldown(p.Window, since, now)
	}

	fresh := u.OTPSendTime != nil && now.Sub(*u.OTPSendTime) < p.CodeTTL
	if u.OTPHash != "" && fresh && secretsEqual(hashSecret(code), u.OTPHash) {
		u.VerificationAttemptCount = 0
		u.VerificationTime = nil
		u.OTPAttemptCount = 0
		u.OTPWindowStart = nil
		u.OTPHash = ""
		u.OTPSendTime = nil
		return nil
	}

	u.VerificationAttemptCount++
	if u.VerificationAttemptCount == 1 || u.VerificationTime == nil {
		first := now
		u.VerificationTime = &first
	}
	if left := p.MaxAttempts - u.VerificationAttemptCount; left > 0 {
		return &OTPError{Message: fmt.Sprintf("Invalid code. Only %d left.", left)}
	}
	return &OTPError{Message: fmt.Sprintf("Invalid code. Please try again after %d min.", int(p.Window.Minutes()))}
}

// generateOTP returns a uniformly random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashSecret(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
