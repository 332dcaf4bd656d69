package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// OTP is a short-lived one-time code record proving control of an email
// address before account creation. Records are never physically consumed;
// signup matches against the most recently created record for the email.
type OTP struct {
	ID        string    `json:"-"`
	Email     string    `json:"email"`
	Code      string    `json:"otp"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type OTPRepository interface {
	// CodeExists reports whether any existing record carries this code.
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateOTP(ctx context.Context, otp OTP) (OTP, error)
	// LatestForEmail returns the most recently created record for the email,
	// or ErrOTPNotFound.
	LatestForEmail(ctx context.Context, email string) (OTP, error)
}

var (
	codeMax    = big.NewInt(1000000)
	randReader = rand.Reader // mockable
)

// generateCode returns a random 6-digit numeric code, zero-padded.
func generateCode(r io.Reader) (string, error) {
	n, err := rand.Int(r, codeMax)
	if err != nil {
		return "", errors.Wrap(err, "generating otp code")
	}
	return fmt.Sprintf("%06d", n), nil
}

// newUniqueCode generates a code that does not collide with any existing
// record, regenerating on collision. The retry is unbounded; uniqueness is
// check-then-act, not transactional.
func newUniqueCode(ctx context.Context, repo OTPRepository) (string, error) {
	for {
		code, err := generateCode(randReader)
		if err != nil {
			return "", err
		}
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "checking otp code collision")
		}
		if !exists {
			return code, nil
		}
	}
}
