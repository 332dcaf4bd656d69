package course

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrCourseNotFound     = errors.New("course not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrSubSectionNotFound = errors.New("subsection not found")
)

type (
	Repository interface {
		// GetCourse returns the course populated with its ordered sections
		// and their subsections, or ErrCourseNotFound.
		GetCourse(ctx context.Context, id string) (Course, error)
		// AddCourseSection creates a section and appends its reference to the
		// course's content sequence.
		AddCourseSection(ctx context.Context, courseID string, sec Section) (Section, error)
		GetSection(ctx context.Context, id string) (Section, error)
		RenameSection(ctx context.Context, id, name string) (Section, error)
		// RemoveCourseSection pulls the section's reference from the course's
		// content sequence.
		RemoveCourseSection(ctx context.Context, courseID, sectionID string) error
		DeleteSection(ctx context.Context, id string) error
		AddSubSection(ctx context.Context, sectionID string, sub SubSection) (SubSection, error)
		GetSubSection(ctx context.Context, id string) (SubSection, error)
		// DeleteSubSections removes every subsection owned by the section and
		// returns how many records were deleted.
		DeleteSubSections(ctx context.Context, sectionID string) (int, error)
		DeleteSubSection(ctx context.Context, id string) error
	}

	Service interface {
		GetCourse(ctx context.Context, id string) (Course, error)
		CreateSection(ctx context.Context, ns NewSection) (Course, error)
		UpdateSection(ctx context.Context, us UpdateSection) (Course, error)
		// DeleteSection cascades: subsections are deleted and the section's
		// reference is pulled from the owning course's content sequence.
		DeleteSection(ctx context.Context, ds DeleteSection) (Course, error)
		CreateSubSection(ctx context.Context, ns NewSubSection) (Section, error)
		DeleteSubSection(ctx context.Context, id string) (Section, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) CreateSection(ctx context.Context, ns NewSection) (Course, error) {
	now := time.Now().UTC()
	sec := Section{
		Name:      ns.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := svc.repo.AddCourseSection(ctx, ns.CourseID, sec); err != nil {
		return Course{}, err
	}
	return svc.repo.GetCourse(ctx, ns.CourseID)
}

func (svc *service) UpdateSection(ctx context.Context, us UpdateSection) (Course, error) {
	if _, err := svc.repo.RenameSection(ctx, us.SectionID, us.Name); err != nil {
		return Course{}, err
	}
	return svc.repo.GetCourse(ctx, us.CourseID)
}

func (svc *service) DeleteSection(ctx context.Context, ds DeleteSection) (Course, error) {
	if err := svc.repo.RemoveCourseSection(ctx, ds.CourseID, ds.SectionID); err != nil {
		return Course{}, err
	}

	sec, err := svc.repo.GetSection(ctx, ds.SectionID)
	if err != nil {
		return Course{}, err
	}

	if _, err = svc.repo.DeleteSubSections(ctx, sec.ID); err != nil {
		return Course{}, pkgerrors.Wrap(err, "deleting subsections")
	}
	if err = svc.repo.DeleteSection(ctx, sec.ID); err != nil {
		return Course{}, pkgerrors.Wrap(err, "deleting section")
	}

	return svc.repo.GetCourse(ctx, ds.CourseID)
}

func (svc *service) CreateSubSection(ctx context.Context, ns NewSubSection) (Section, error) {
	sub := SubSection{
		Title:       ns.Title,
		Description: ns.Description,
		Duration:    ns.Duration,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := svc.repo.AddSubSection(ctx, ns.SectionID, sub); err != nil {
		return Section{}, err
	}
	return svc.repo.GetSection(ctx, ns.SectionID)
}

func (svc *service) DeleteSubSection(ctx context.Context, id string) (Section, error) {
	sub, err := svc.repo.GetSubSection(ctx, id)
	if err != nil {
		return Section{}, err
	}
	if err = svc.repo.DeleteSubSection(ctx, sub.ID); err != nil {
		return Section{}, pkgerrors.Wrap(err, "deleting subsection")
	}
	return svc.repo.GetSection(ctx, sub.SectionID)
}
