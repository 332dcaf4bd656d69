package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/elimuhq/elimu/core/course"
)

type (
	courseRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	sectionRow struct {
		ID        string    `db:"id"`
		CourseID  string    `db:"course_id"`
		Name      string    `db:"name"`
		Position  int       `db:"position"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	subSectionRow struct {
		ID          string    `db:"id"`
		SectionID   string    `db:"section_id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		Duration    string    `db:"duration"`
		CreatedAt   time.Time `db:"created_at"`
	}

	courseRepository struct {
		db *sqlx.DB
	}
)

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) fromSectionRow(row sectionRow) course.Section {
	return course.Section{
		ID:          row.ID,
		Name:        row.Name,
		SubSections: []course.SubSection{},
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (repo courseRepository) fromSubSectionRow(row subSectionRow) course.SubSection {
	return course.SubSection{
		ID:          row.ID,
		SectionID:   row.SectionID,
		Title:       row.Title,
		Description: row.Description,
		Duration:    row.Duration,
		CreatedAt:   row.CreatedAt,
	}
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrCourseNotFound
	}

	var crsRow courseRow
	if err := repo.db.GetContext(ctx, &crsRow, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}

	var secRows []sectionRow
	const secQuery = `SELECT * FROM course_section WHERE course_id = $1 ORDER BY position`
	if err := repo.db.SelectContext(ctx, &secRows, secQuery, id); err != nil {
		return course.Course{}, errors.Wrap(err, "querying sections")
	}

	crs := course.Course{
		ID:        crsRow.ID,
		Name:      crsRow.Name,
		Sections:  make([]course.Section, 0, len(secRows)),
		CreatedAt: crsRow.CreatedAt,
		UpdatedAt: crsRow.UpdatedAt,
	}

	for _, secRow := range secRows {
		sec := repo.fromSectionRow(secRow)

		var subRows []subSectionRow
		const subQuery = `SELECT * FROM course_subsection WHERE section_id = $1 ORDER BY created_at`
		if err := repo.db.SelectContext(ctx, &subRows, subQuery, sec.ID); err != nil {
			return course.Course{}, errors.Wrap(err, "querying subsections")
		}
		for _, subRow := range subRows {
			sec.SubSections = append(sec.SubSections, repo.fromSubSectionRow(subRow))
		}

		crs.Sections = append(crs.Sections, sec)
	}
	return crs, nil
}

func (repo courseRepository) AddCourseSection(ctx context.Context, courseID string, sec course.Section) (course.Section, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return course.Section{}, course.ErrCourseNotFound
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM course WHERE id = $1)`, courseID); err != nil {
		return course.Section{}, errors.Wrap(err, "checking course")
	}
	if !exists {
		return course.Section{}, course.ErrCourseNotFound
	}
	sec.ID = uuid.New().String()

	// the new section goes at the end of the course's content sequence
	const query = `
		INSERT INTO course_section (id, course_id, name, position, created_at, updated_at)
		SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1, $4, $5
		FROM course_section WHERE course_id = $2`
	if _, err := repo.db.ExecContext(ctx, query,
		sec.ID, courseID, sec.Name, sec.CreatedAt.UTC(), sec.UpdatedAt.UTC()); err != nil {
		return course.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo courseRepository) GetSection(ctx context.Context, id string) (course.Section, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Section{}, course.ErrSectionNotFound
	}

	var row sectionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course_section WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Section{}, course.ErrSectionNotFound
		}
		return course.Section{}, errors.Wrap(err, "finding section")
	}
	sec := repo.fromSectionRow(row)

	var subRows []subSectionRow
	const subQuery = `SELECT * FROM course_subsection WHERE section_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &subRows, subQuery, id); err != nil {
		return course.Section{}, errors.Wrap(err, "querying subsections")
	}
	for _, subRow := range subRows {
		sec.SubSections = append(sec.SubSections, repo.fromSubSectionRow(subRow))
	}
	return sec, nil
}

func (repo courseRepository) RenameSection(ctx context.Context, id, name string) (course.Section, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Section{}, course.ErrSectionNotFound
	}

	const query = `UPDATE course_section SET name = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, name, time.Now().UTC())
	if err != nil {
		return course.Section{}, errors.Wrap(err, "updating section")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Section{}, course.ErrSectionNotFound
	}
	return repo.GetSection(ctx, id)
}

func (repo courseRepository) RemoveCourseSection(ctx context.Context, courseID, sectionID string) error {
	if _, err := uuid.Parse(courseID); err != nil {
		return nil // nothing referenced; mirrors a no-op pull
	}
	// detaching is a position compaction: rows after the section shift down.
	// The subquery is scoped to the course so a section id belonging to a
	// different course falls through to the COALESCE no-op arm.
	const query = `
		UPDATE course_section
		SET position = position - 1
		WHERE course_id = $1
		  AND position > COALESCE((SELECT position FROM course_section WHERE id = $2 AND course_id = $1), 2147483647)`
	if _, err := repo.db.ExecContext(ctx, query, courseID, sectionID); err != nil {
		return errors.Wrap(err, "detaching section")
	}
	return nil
}

func (repo courseRepository) DeleteSection(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course_section WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting section")
	}
	return nil
}

func (repo courseRepository) AddSubSection(ctx context.Context, sectionID string, sub course.SubSection) (course.SubSection, error) {
	if _, err := uuid.Parse(sectionID); err != nil {
		return course.SubSection{}, course.ErrSectionNotFound
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM course_section WHERE id = $1)`, sectionID); err != nil {
		return course.SubSection{}, errors.Wrap(err, "checking section")
	}
	if !exists {
		return course.SubSection{}, course.ErrSectionNotFound
	}
	sub.ID = uuid.New().String()
	sub.SectionID = sectionID

	const query = `
		INSERT INTO course_subsection (id, section_id, title, description, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.SectionID, sub.Title, sub.Description, sub.Duration, sub.CreatedAt.UTC()); err != nil {
		return course.SubSection{}, errors.Wrap(err, "inserting subsection")
	}
	return sub, nil
}

func (repo courseRepository) GetSubSection(ctx context.Context, id string) (course.SubSection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.SubSection{}, course.ErrSubSectionNotFound
	}

	var row subSectionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course_subsection WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.SubSection{}, course.ErrSubSectionNotFound
		}
		return course.SubSection{}, errors.Wrap(err, "finding subsection")
	}
	return repo.fromSubSectionRow(row), nil
}

func (repo courseRepository) DeleteSubSections(ctx context.Context, sectionID string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course_subsection WHERE section_id = $1`, sectionID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting subsections")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo courseRepository) DeleteSubSection(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course_subsection WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting subsection")
	}
	return nil
}
