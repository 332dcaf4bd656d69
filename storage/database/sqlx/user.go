package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core/user"
)

type (
	userRow struct {
		ID            string    `db:"id"`
		FirstName     string    `db:"first_name"`
		LastName      string    `db:"last_name"`
		Email         string    `db:"email"`
		ContactNumber string    `db:"contact_number"`
		Role          string    `db:"role"`
		PasswordHash  []byte    `db:"password_hash"`
		ProfileID     string    `db:"profile_id"`
		AvatarURL     string    `db:"avatar_url"`
		CreatedAt     time.Time `db:"created_at"`
		UpdatedAt     time.Time `db:"updated_at"`
	}

	profileRow struct {
		ID            string       `db:"id"`
		Gender        string       `db:"gender"`
		DateOfBirth   sql.NullTime `db:"date_of_birth"`
		About         string       `db:"about"`
		ContactNumber string       `db:"contact_number"`
		CreatedAt     time.Time    `db:"created_at"`
		UpdatedAt     time.Time    `db:"updated_at"`
	}

	userRepository struct {
		db *sqlx.DB
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:            usr.ID,
		FirstName:     usr.FirstName,
		LastName:      usr.LastName,
		Email:         usr.Email,
		ContactNumber: usr.ContactNumber,
		Role:          usr.Role,
		PasswordHash:  usr.PasswordHash,
		ProfileID:     usr.ProfileID,
		AvatarURL:     usr.AvatarURL,
		CreatedAt:     usr.CreatedAt.UTC(),
		UpdatedAt:     usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:            row.ID,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Email:         row.Email,
		ContactNumber: row.ContactNumber,
		Role:          row.Role,
		PasswordHash:  row.PasswordHash,
		ProfileID:     row.ProfileID,
		AvatarURL:     row.AvatarURL,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func (repo userRepository) fromProfileRow(row profileRow) user.Profile {
	prof := user.Profile{
		ID:            row.ID,
		Gender:        row.Gender,
		About:         row.About,
		ContactNumber: row.ContactNumber,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.DateOfBirth.Valid {
		dob := row.DateOfBirth.Time
		prof.DateOfBirth = &dob
	}
	return prof
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	prof.ID = uuid.New().String()
	now := time.Now().UTC()
	prof.CreatedAt, prof.UpdatedAt = now, now

	const query = `
		INSERT INTO profile (id, gender, about, contact_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := repo.db.ExecContext(ctx, query,
		prof.ID, prof.Gender, prof.About, prof.ContactNumber, prof.CreatedAt, prof.UpdatedAt,
	); err != nil {
		return user.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return prof, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.toRow(usr)

	const query = `
		INSERT INTO "user" (id, first_name, last_name, email, contact_number, role,
		                    password_hash, profile_id, avatar_url, created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :email, :contact_number, :role,
		        :password_hash, :profile_id, :avatar_url, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var row userRow
	var err error

	switch {
	case filter.ID != "":
		if _, uerr := uuid.Parse(filter.ID); uerr != nil {
			return user.User{}, user.ErrNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, filter.ID)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}

	usr := repo.fromRow(row)

	var profRow profileRow
	if err = repo.db.GetContext(ctx, &profRow, `SELECT * FROM profile WHERE id = $1`, row.ProfileID); err == nil {
		prof := repo.fromProfileRow(profRow)
		usr.Profile = &prof
	} else if err != sql.ErrNoRows {
		return user.User{}, errors.Wrap(err, "finding profile")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)

	const query = `
		UPDATE "user"
		SET first_name = :first_name, last_name = :last_name, email = :email,
		    contact_number = :contact_number, role = :role, password_hash = :password_hash,
		    avatar_url = :avatar_url, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}
