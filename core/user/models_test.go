package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func newUserFixture() NewUser {
	return NewUser{
		FirstName:       "Awe",
		LastName:        "Mungu",
		Email:           "awe@test.cd",
		Password:        "LikeItMatters",
		PasswordConfirm: "LikeItMatters",
		OTP:             "123456",
	}
}

func fieldErrs(t *testing.T, err error) map[string]bool {
	t.Helper()
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("error = %T; want validator.ValidationErrors", err)
	}
	fields := make(map[string]bool, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = true
	}
	return fields
}

func TestNewUser_Validate(t *testing.T) {
	t.Run("defaults role to Student", func(t *testing.T) {
		nu := newUserFixture()
		if err := nu.Validate(); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if nu.Role != RoleStudent {
			t.Errorf("Role = %q; want %q", nu.Role, RoleStudent)
		}
	})

	t.Run("lowers and trims email", func(t *testing.T) {
		nu := newUserFixture()
		nu.Email = "  AWE@Test.CD "
		if err := nu.Validate(); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if nu.Email != "awe@test.cd" {
			t.Errorf("Email = %q; want %q", nu.Email, "awe@test.cd")
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		nu := newUserFixture()
		nu.PasswordConfirm = "Different"
		err := nu.Validate()
		if err == nil {
			t.Fatal("Validate() expected error")
		}
		if fields := fieldErrs(t, err); !fields["confirm_password"] {
			t.Errorf("fields = %v; want confirm_password", fields)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		nu := newUserFixture()
		nu.Role = "Overlord"
		if err := nu.Validate(); err == nil {
			t.Fatal("Validate() expected error")
		}
	})

	t.Run("otp must be 6 digits", func(t *testing.T) {
		for _, otp := range []string{"", "12345", "1234567", "12345a"} {
			nu := newUserFixture()
			nu.OTP = otp
			if err := nu.Validate(); err == nil {
				t.Errorf("Validate() expected error for otp %q", otp)
			}
		}
	})

	t.Run("missing required fields", func(t *testing.T) {
		nu := NewUser{}
		err := nu.Validate()
		if err == nil {
			t.Fatal("Validate() expected error")
		}
		fields := fieldErrs(t, err)
		for _, f := range []string{"first_name", "last_name", "email", "password", "otp"} {
			if !fields[f] {
				t.Errorf("fields = %v; want %s", fields, f)
			}
		}
	})
}

func TestUser_password(t *testing.T) {
	var usr User
	if err := usr.SetPassword("LikeItMatters"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("LikeItMatters"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("NotIt"); err == nil {
		t.Error("CheckPassword() expected error for wrong password")
	}
}
