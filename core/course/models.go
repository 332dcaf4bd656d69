package course

import (
	"time"

	"github.com/elimuhq/elimu/core"
)

type (
	// SubSection is a single content unit owned by a Section.
	SubSection struct {
		ID          string    `json:"id"`
		SectionID   string    `json:"-"`
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		Duration    string    `json:"time_duration,omitempty"`
		CreatedAt   time.Time `json:"-"`
	}

	// Section is a named group of SubSections within a Course.
	Section struct {
		ID          string       `json:"id"`
		Name        string       `json:"section_name"`
		SubSections []SubSection `json:"sub_section"`
		CreatedAt   time.Time    `json:"-"`
		UpdatedAt   time.Time    `json:"-"`
	}

	// Course owns an ordered sequence of Sections.
	Course struct {
		ID        string    `json:"id"`
		Name      string    `json:"course_name"`
		Sections  []Section `json:"course_content"`
		CreatedAt time.Time `json:"-"`
		UpdatedAt time.Time `json:"-"`
	}
)

// NewSection is a section-create request payload.
type NewSection struct {
	Name     string `json:"section_name" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
}

func (ns *NewSection) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}

// UpdateSection is a section-rename request payload.
type UpdateSection struct {
	Name      string `json:"section_name" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

func (us *UpdateSection) Validate() error {
	us.Name = core.CleanString(us.Name)
	return core.Validate.Struct(us)
}

// DeleteSection is a section-delete request payload.
type DeleteSection struct {
	SectionID string `json:"section_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

func (ds *DeleteSection) Validate() error { return core.Validate.Struct(ds) }

// NewSubSection is a subsection-create request payload.
type NewSubSection struct {
	SectionID   string `json:"section_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Duration    string `json:"time_duration"`
}

func (ns *NewSubSection) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}
