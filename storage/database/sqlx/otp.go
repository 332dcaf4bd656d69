package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core/user"
)

type (
	otpRow struct {
		ID        string    `db:"id"`
		Email     string    `db:"email"`
		Code      string    `db:"code"`
		CreatedAt time.Time `db:"created_at"`
	}

	otpRepository struct {
		db *sqlx.DB
	}
)

var _ user.OTPRepository = (*otpRepository)(nil) // interface compliance check

func NewOTPRepository(db *sqlx.DB) *otpRepository {
	return &otpRepository{db: db}
}

func (repo otpRepository) fromRow(row otpRow) user.OTP {
	return user.OTP{
		ID:        row.ID,
		Email:     row.Email,
		Code:      row.Code,
		CreatedAt: row.CreatedAt,
	}
}

func (repo otpRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM otp WHERE code = $1)`, code)
	if err != nil {
		return false, errors.Wrap(err, "checking otp code")
	}
	return exists, nil
}

func (repo otpRepository) CreateOTP(ctx context.Context, otp user.OTP) (user.OTP, error) {
	otp.ID = uuid.New().String()

	const query = `INSERT INTO otp (id, email, code, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, query, otp.ID, otp.Email, otp.Code, otp.CreatedAt.UTC()); err != nil {
		return user.OTP{}, errors.Wrap(err, "inserting otp")
	}
	return otp, nil
}

func (repo otpRepository) LatestForEmail(ctx context.Context, email string) (user.OTP, error) {
	var row otpRow
	const query = `SELECT * FROM otp WHERE email = $1 ORDER BY created_at DESC LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, query, email); err != nil {
		if err == sql.ErrNoRows {
			return user.OTP{}, user.ErrOTPNotFound
		}
		return user.OTP{}, errors.Wrap(err, "finding latest otp")
	}
	return repo.fromRow(row), nil
}
