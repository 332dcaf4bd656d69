package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/elimuhq/elimu/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, u := range repo.db.users {
		if u.Email == email && !excluded[u.ID] {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	prof.ID = uuid.New().String()
	cpy := prof
	repo.db.profiles[prof.ID] = &cpy
	return prof, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	cpy := usr
	cpy.Profile = nil
	cpy.Token = ""
	repo.db.users[usr.ID] = &cpy
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var found *user.User
	switch {
	case filter.ID != "":
		found = repo.db.users[filter.ID]
	case filter.Email != "":
		for _, u := range repo.db.users {
			if u.Email == filter.Email {
				found = u
				break
			}
		}
	}
	if found == nil {
		return user.User{}, user.ErrNotFound
	}

	usr := *found
	if prof, ok := repo.db.profiles[usr.ProfileID]; ok {
		profCpy := *prof
		usr.Profile = &profCpy
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	cpy := usr
	cpy.Profile = nil
	cpy.Token = ""
	repo.db.users[usr.ID] = &cpy
	return usr, nil
}

type otpRepository struct {
	db *DB
}

var _ user.OTPRepository = (*otpRepository)(nil)

func NewOTPRepository(db *DB) *otpRepository {
	return &otpRepository{db: db}
}

func (repo *otpRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, otp := range repo.db.otps {
		if otp.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (repo *otpRepository) CreateOTP(ctx context.Context, otp user.OTP) (user.OTP, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	otp.ID = uuid.New().String()
	cpy := otp
	repo.db.otps[otp.ID] = &cpy
	return otp, nil
}

func (repo *otpRepository) LatestForEmail(ctx context.Context, email string) (user.OTP, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var latest *user.OTP
	for _, otp := range repo.db.otps {
		if otp.Email != email {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return user.OTP{}, user.ErrOTPNotFound
	}
	return *latest, nil
}
