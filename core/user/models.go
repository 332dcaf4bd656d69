package user

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/elimuhq/elimu/core"
)

// Account roles
const (
	RoleStudent    = "Student"
	RoleInstructor = "Instructor"
	RoleAdmin      = "Admin"
)

var AllRoles = []string{RoleStudent, RoleInstructor, RoleAdmin}

type (
	// Profile holds the auxiliary optional attributes of a User. It is created
	// empty alongside a new User and owned exclusively by it.
	Profile struct {
		ID            string     `json:"id"`
		Gender        string     `json:"gender,omitempty"`
		DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
		About         string     `json:"about,omitempty"`
		ContactNumber string     `json:"contact_number,omitempty"`
		CreatedAt     time.Time  `json:"-"`
		UpdatedAt     time.Time  `json:"-"`
	}

	User struct {
		ID            string    `json:"id"`
		FirstName     string    `json:"first_name"`
		LastName      string    `json:"last_name"`
		Email         string    `json:"email"`
		ContactNumber string    `json:"contact_number,omitempty"`
		Role          string    `json:"account_type"`
		PasswordHash  []byte    `json:"-"`
		ProfileID     string    `json:"-"`
		Profile       *Profile  `json:"additional_details,omitempty"`
		AvatarURL     string    `json:"image"`
		Token         string    `json:"token,omitempty"` // session token, set on login only
		CreatedAt     time.Time `json:"created_at"`      // UTC
		UpdatedAt     time.Time `json:"updated_at"`      // UTC
	}
)

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) Name() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsStudent() bool    { return u.Role == RoleStudent }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }

// defaultAvatarURL seeds an initials avatar for a new account.
func defaultAvatarURL(firstName, lastName string) string {
	return fmt.Sprintf("https://api.dicebear.com/5.x/initials/svg?seed=%s %s", firstName, lastName)
}

// NewUser contains information needed to sign a new User up.
type NewUser struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"account_type" validate:"omitempty,oneof=Student Instructor Admin"`
	ContactNumber   string `json:"contact_number" validate:"omitempty"`
	OTP             string `json:"otp" validate:"required,len=6,numeric"`
}

func (nu *NewUser) Validate() error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
	return core.Validate.Struct(nu)
}

// Credentials is a login request payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return core.Validate.Struct(c)
}

// PasswordChange mutates an authenticated User's password.
type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

func (pc *PasswordChange) Validate() error { return core.Validate.Struct(pc) }

// OTPRequest asks for a one-time code to be issued for an email address.
type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *OTPRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}
