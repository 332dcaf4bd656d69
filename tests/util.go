package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/elimuhq/elimu/core/course"
	"github.com/elimuhq/elimu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	ctx := context.Background()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}

	prof, err := repo.CreateProfile(ctx, user.Profile{CreatedAt: tstamp, UpdatedAt: tstamp})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	usr := user.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Role:      role,
		ProfileID: prof.ID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err = repo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr.Profile = &prof
	return usr
}

func CreateOTP(
	t *testing.T,
	repo user.OTPRepository,
	email, code string,
	createdAt ...time.Time,
) user.OTP {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	otp, err := repo.CreateOTP(context.Background(), user.OTP{
		Email:     email,
		Code:      code,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateOTP() failed: %v", err)
	}
	return otp
}

// CourseSeeder is satisfied by repositories that can also seed courses.
type CourseSeeder interface {
	course.Repository
	CreateCourse(ctx context.Context, crs course.Course) (course.Course, error)
}

func CreateCourse(t *testing.T, repo CourseSeeder, name string) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateSection(t *testing.T, repo course.Repository, courseID, name string) course.Section {
	t.Helper()

	now := time.Now().UTC()
	sec, err := repo.AddCourseSection(context.Background(), courseID, course.Section{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	return sec
}

func CreateSubSection(t *testing.T, repo course.Repository, sectionID, title string, createdAt ...time.Time) course.SubSection {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sub, err := repo.AddSubSection(context.Background(), sectionID, course.SubSection{
		Title:     title,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSubSection() failed: %v", err)
	}
	return sub
}
