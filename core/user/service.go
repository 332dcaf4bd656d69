package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/elimuhq/elimu/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrNotRegistered   = errors.New("user is not registered")
	ErrInvalidPassword = errors.New("the password is incorrect")
	ErrOTPNotFound     = errors.New("otp not found")
	ErrInvalidOTP      = errors.New("the otp is not valid")
	ErrMailDelivery    = errors.New("notification email could not be sent")
)

type (
	GetFilter struct {
		ID    string
		Email string
	}

	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when the email is taken
		// by a user other than the excluded ones.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser populates the user's Profile reference.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		// RequestOTP issues a one-time code for an unregistered email.
		RequestOTP(ctx context.Context, email string) (OTP, error)
		// Register creates a User (and its empty Profile) after checking the
		// most recent OTP record for the email against the supplied code.
		Register(ctx context.Context, nu NewUser) (User, error)
		// Authenticate verifies credentials and returns the matching User.
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		// ChangePassword replaces the stored hash and sends a notification
		// email; a delivery failure is returned as ErrMailDelivery even
		// though the password change already committed.
		ChangePassword(ctx context.Context, userID string, pc PasswordChange) (User, error)
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
	}

	service struct {
		repo    Repository
		otpRepo OTPRepository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, otpRepo OTPRepository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		otpRepo: otpRepo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) RequestOTP(ctx context.Context, email string) (OTP, error) {
	email = core.CleanString(email, true /* lower */)

	if _, err := svc.repo.GetUser(ctx, GetFilter{Email: email}); err == nil {
		return OTP{}, ErrEmailExists
	} else if err != ErrNotFound {
		return OTP{}, pkgerrors.Wrap(err, "checking registered email")
	}

	code, err := newUniqueCode(ctx, svc.otpRepo)
	if err != nil {
		return OTP{}, err
	}

	otp, err := svc.otpRepo.CreateOTP(ctx, OTP{
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return OTP{}, pkgerrors.Wrap(err, "creating otp record")
	}

	svc.sendOTPMail(otp)
	return otp, nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.CheckEmailUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	// the most recently issued code for this email wins; no expiry window is
	// enforced at consumption time
	otp, err := svc.otpRepo.LatestForEmail(ctx, nu.Email)
	if err != nil {
		if err == ErrOTPNotFound {
			return User{}, ErrInvalidOTP
		}
		return User{}, pkgerrors.Wrap(err, "finding latest otp")
	}
	if otp.Code != nu.OTP {
		return User{}, ErrInvalidOTP
	}

	prof, err := svc.repo.CreateProfile(ctx, Profile{})
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "creating profile")
	}

	now := time.Now().UTC()
	usr := User{
		FirstName:     nu.FirstName,
		LastName:      nu.LastName,
		Email:         nu.Email,
		ContactNumber: nu.ContactNumber,
		Role:          nu.Role,
		ProfileID:     prof.ID,
		AvatarURL:     defaultAvatarURL(nu.FirstName, nu.LastName),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}

	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "creating user")
	}
	usr.Profile = &prof
	return usr, nil
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrNotRegistered
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidPassword
	}
	return usr, nil
}

func (svc *service) ChangePassword(ctx context.Context, userID string, pc PasswordChange) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: userID})
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "finding user by ID")
	}
	if err = usr.CheckPassword(pc.OldPassword); err != nil {
		return User{}, ErrInvalidPassword
	}

	if err = usr.SetPassword(pc.NewPassword); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "updating user")
	}

	// the password change has committed at this point; a delivery failure is
	// still surfaced as a distinct error
	if err = svc.sendPasswordUpdatedMail(usr); err != nil {
		return usr, ErrMailDelivery
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) sendOTPMail(otp OTP) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: otp.Email}},
		Subject:      "Verify your email address",
		TemplateName: "otp",
		TemplateData: struct{ Code string }{otp.Code},
	})
}

func (svc *service) sendPasswordUpdatedMail(usr User) error {
	return svc.mailSvc.Send(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Password for your account has been updated",
		TemplateName: "password_updated",
		TemplateData: struct{ Name, Email string }{usr.Name(), usr.Email},
	})
}
