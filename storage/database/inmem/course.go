package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/elimuhq/elimu/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// CreateCourse seeds a course; it is not part of course.Repository but is
// needed by tests and fixtures.
func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = uuid.New().String()
	crs.Sections = nil
	repo.db.courses[crs.ID] = &courseRecord{course: crs}
	return crs, nil
}

func (repo *courseRepository) populateSection(sec course.Section) course.Section {
	sec.SubSections = []course.SubSection{}
	for _, sub := range repo.db.subSections {
		if sub.SectionID == sec.ID {
			sec.SubSections = append(sec.SubSections, *sub)
		}
	}
	sort.Slice(sec.SubSections, func(i, j int) bool {
		return sec.SubSections[i].CreatedAt.Before(sec.SubSections[j].CreatedAt)
	})
	return sec
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrCourseNotFound
	}

	crs := rec.course
	crs.Sections = make([]course.Section, 0, len(rec.sectionIDs))
	for _, secID := range rec.sectionIDs {
		if sec, ok := repo.db.sections[secID]; ok {
			crs.Sections = append(crs.Sections, repo.populateSection(*sec))
		}
	}
	return crs, nil
}

func (repo *courseRepository) AddCourseSection(ctx context.Context, courseID string, sec course.Section) (course.Section, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.courses[courseID]
	if !ok {
		return course.Section{}, course.ErrCourseNotFound
	}

	sec.ID = uuid.New().String()
	cpy := sec
	cpy.SubSections = nil
	repo.db.sections[sec.ID] = &cpy
	rec.sectionIDs = append(rec.sectionIDs, sec.ID)
	return sec, nil
}

func (repo *courseRepository) GetSection(ctx context.Context, id string) (course.Section, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sec, ok := repo.db.sections[id]
	if !ok {
		return course.Section{}, course.ErrSectionNotFound
	}
	return repo.populateSection(*sec), nil
}

func (repo *courseRepository) RenameSection(ctx context.Context, id, name string) (course.Section, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sec, ok := repo.db.sections[id]
	if !ok {
		return course.Section{}, course.ErrSectionNotFound
	}
	sec.Name = name
	sec.UpdatedAt = time.Now().UTC()
	return repo.populateSection(*sec), nil
}

func (repo *courseRepository) RemoveCourseSection(ctx context.Context, courseID, sectionID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.courses[courseID]
	if !ok {
		return nil
	}
	for i, id := range rec.sectionIDs {
		if id == sectionID {
			rec.sectionIDs = append(rec.sectionIDs[:i], rec.sectionIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (repo *courseRepository) DeleteSection(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.sections, id)
	return nil
}

func (repo *courseRepository) AddSubSection(ctx context.Context, sectionID string, sub course.SubSection) (course.SubSection, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.sections[sectionID]; !ok {
		return course.SubSection{}, course.ErrSectionNotFound
	}
	sub.ID = uuid.New().String()
	sub.SectionID = sectionID
	cpy := sub
	repo.db.subSections[sub.ID] = &cpy
	return sub, nil
}

func (repo *courseRepository) GetSubSection(ctx context.Context, id string) (course.SubSection, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub, ok := repo.db.subSections[id]
	if !ok {
		return course.SubSection{}, course.ErrSubSectionNotFound
	}
	return *sub, nil
}

func (repo *courseRepository) DeleteSubSections(ctx context.Context, sectionID string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for id, sub := range repo.db.subSections {
		if sub.SectionID == sectionID {
			delete(repo.db.subSections, id)
			n++
		}
	}
	return n, nil
}

func (repo *courseRepository) DeleteSubSection(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.subSections, id)
	return nil
}
