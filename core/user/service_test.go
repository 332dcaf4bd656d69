package user_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/user"
	"github.com/elimuhq/elimu/services/email"
	"github.com/elimuhq/elimu/storage/database/inmem"
	"github.com/elimuhq/elimu/tests"
)

type failingMailService struct{}

func (failingMailService) SendMessages(...*core.EmailMessage) {}
func (failingMailService) Send(*core.EmailMessage) error {
	return errors.New("smtp down")
}

func setup(t *testing.T) (user.Service, user.Repository, user.OTPRepository) {
	t.Helper()
	db := inmemdb.New()
	repo := inmemdb.NewUserRepository(db)
	otpRepo := inmemdb.NewOTPRepository(db)
	conf := core.NewTestConfig()
	emailsvc.ResetSentMessages()
	svc := user.NewService(repo, otpRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	return svc, repo, otpRepo
}

func newUserFixture(email, code string) user.NewUser {
	return user.NewUser{
		FirstName:       "Awe",
		LastName:        "Mungu",
		Email:           email,
		Password:        "LikeItMatters",
		PasswordConfirm: "LikeItMatters",
		Role:            user.RoleStudent,
		OTP:             code,
	}
}

func Test_service_RequestOTP(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	otp, err := svc.RequestOTP(ctx, "AWE@Test.CD")
	if err != nil {
		t.Fatalf("RequestOTP() failed: %v", err)
	}
	if otp.Email != "awe@test.cd" {
		t.Errorf("Email = %q; want %q", otp.Email, "awe@test.cd")
	}
	if len(otp.Code) != 6 {
		t.Errorf("Code = %q; want 6 digits", otp.Code)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent messages = %d; want 1", len(emailsvc.SentMessages))
	}
	if msg := emailsvc.SentMessages[0]; !strings.Contains(msg.TextContent, otp.Code) {
		t.Errorf("otp email does not contain the code: %q", msg.TextContent)
	}

	// a registered email cannot request a code
	testutil.CreateUser(t, repo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)
	if _, err = svc.RequestOTP(ctx, "awe@test.cd"); err != user.ErrEmailExists {
		t.Errorf("RequestOTP() error = %v; want %v", err, user.ErrEmailExists)
	}
}

func Test_service_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("no code issued", func(t *testing.T) {
		svc, _, _ := setup(t)
		if _, err := svc.Register(ctx, newUserFixture("awe@test.cd", "123456")); err != user.ErrInvalidOTP {
			t.Errorf("Register() error = %v; want %v", err, user.ErrInvalidOTP)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, _, otpRepo := setup(t)
		testutil.CreateOTP(t, otpRepo, "awe@test.cd", "111111")
		if _, err := svc.Register(ctx, newUserFixture("awe@test.cd", "123456")); err != user.ErrInvalidOTP {
			t.Errorf("Register() error = %v; want %v", err, user.ErrInvalidOTP)
		}
	})

	t.Run("only the most recent code counts", func(t *testing.T) {
		svc, _, otpRepo := setup(t)
		now := time.Now()
		testutil.CreateOTP(t, otpRepo, "awe@test.cd", "111111", now.Add(-time.Hour))
		testutil.CreateOTP(t, otpRepo, "awe@test.cd", "222222", now)

		if _, err := svc.Register(ctx, newUserFixture("awe@test.cd", "111111")); err != user.ErrInvalidOTP {
			t.Errorf("Register() error = %v; want %v", err, user.ErrInvalidOTP)
		}
		if _, err := svc.Register(ctx, newUserFixture("awe@test.cd", "222222")); err != nil {
			t.Errorf("Register() failed: %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, repo, otpRepo := setup(t)
		testutil.CreateUser(t, repo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)
		testutil.CreateOTP(t, otpRepo, "awe@test.cd", "123456")

		_, err := svc.Register(ctx, newUserFixture("awe@test.cd", "123456"))
		vErr, ok := err.(*core.ValidationError)
		if !ok {
			t.Fatalf("Register() error = %T; want *core.ValidationError", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
			t.Errorf("Fields = %v; want a single email error", vErr.Fields)
		}
	})

	t.Run("ok", func(t *testing.T) {
		svc, _, otpRepo := setup(t)
		testutil.CreateOTP(t, otpRepo, "awe@test.cd", "123456")

		usr, err := svc.Register(ctx, newUserFixture("awe@test.cd", "123456"))
		if err != nil {
			t.Fatalf("Register() failed: %v", err)
		}
		if usr.ID == "" {
			t.Error("ID not set")
		}
		if usr.Role != user.RoleStudent {
			t.Errorf("Role = %q; want %q", usr.Role, user.RoleStudent)
		}
		if usr.Profile == nil || usr.Profile.ID == "" {
			t.Error("empty Profile not created")
		}
		if !strings.Contains(usr.AvatarURL, "seed=Awe Mungu") {
			t.Errorf("AvatarURL = %q; want initials seed", usr.AvatarURL)
		}
		if err = usr.CheckPassword("LikeItMatters"); err != nil {
			t.Errorf("CheckPassword() failed: %v", err)
		}

		// registered user can now authenticate
		if _, err = svc.Authenticate(ctx, "awe@test.cd", "LikeItMatters"); err != nil {
			t.Errorf("Authenticate() failed: %v", err)
		}
	})
}

func Test_service_Authenticate(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)

	if _, err := svc.Authenticate(ctx, "ghost@test.cd", "LikeItMatters"); err != user.ErrNotRegistered {
		t.Errorf("Authenticate() error = %v; want %v", err, user.ErrNotRegistered)
	}
	if _, err := svc.Authenticate(ctx, "awe@test.cd", "NotIt"); err != user.ErrInvalidPassword {
		t.Errorf("Authenticate() error = %v; want %v", err, user.ErrInvalidPassword)
	}

	usr, err := svc.Authenticate(ctx, "AWE@test.cd", "LikeItMatters")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if usr.Email != "awe@test.cd" {
		t.Errorf("Email = %q; want %q", usr.Email, "awe@test.cd")
	}
}

func Test_service_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong old password", func(t *testing.T) {
		svc, repo, _ := setup(t)
		usr := testutil.CreateUser(t, repo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)

		pc := user.PasswordChange{OldPassword: "NotIt", NewPassword: "NewOne!"}
		if _, err := svc.ChangePassword(ctx, usr.ID, pc); err != user.ErrInvalidPassword {
			t.Errorf("ChangePassword() error = %v; want %v", err, user.ErrInvalidPassword)
		}
		// old password still works
		if _, err := svc.Authenticate(ctx, "awe@test.cd", "LikeItMatters"); err != nil {
			t.Errorf("Authenticate() failed: %v", err)
		}
	})

	t.Run("ok", func(t *testing.T) {
		svc, repo, _ := setup(t)
		usr := testutil.CreateUser(t, repo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)

		pc := user.PasswordChange{OldPassword: "LikeItMatters", NewPassword: "NewOne!"}
		if _, err := svc.ChangePassword(ctx, usr.ID, pc); err != nil {
			t.Fatalf("ChangePassword() failed: %v", err)
		}
		if _, err := svc.Authenticate(ctx, "awe@test.cd", "LikeItMatters"); err != user.ErrInvalidPassword {
			t.Errorf("Authenticate() error = %v; want %v", err, user.ErrInvalidPassword)
		}
		if _, err := svc.Authenticate(ctx, "awe@test.cd", "NewOne!"); err != nil {
			t.Errorf("Authenticate() failed: %v", err)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Errorf("sent messages = %d; want 1", len(emailsvc.SentMessages))
		}
	})

	t.Run("notification failure is surfaced, change still committed", func(t *testing.T) {
		db := inmemdb.New()
		repo := inmemdb.NewUserRepository(db)
		conf := core.NewTestConfig()
		svc := user.NewService(repo, inmemdb.NewOTPRepository(db), failingMailService{}, conf)
		usr := testutil.CreateUser(t, repo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)

		pc := user.PasswordChange{OldPassword: "LikeItMatters", NewPassword: "NewOne!"}
		if _, err := svc.ChangePassword(ctx, usr.ID, pc); err != user.ErrMailDelivery {
			t.Fatalf("ChangePassword() error = %v; want %v", err, user.ErrMailDelivery)
		}
		if _, err := svc.Authenticate(ctx, "awe@test.cd", "NewOne!"); err != nil {
			t.Errorf("Authenticate() failed: %v", err)
		}
	})
}
