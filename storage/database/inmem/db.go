// Package inmemdb provides in-memory repository implementations used by unit
// tests in place of a live database.
package inmemdb

import (
	"sync"

	"github.com/elimuhq/elimu/core/course"
	"github.com/elimuhq/elimu/core/user"
)

type DB struct {
	mu sync.Mutex

	users       map[string]*user.User
	profiles    map[string]*user.Profile
	otps        map[string]*user.OTP
	courses     map[string]*courseRecord
	sections    map[string]*course.Section
	subSections map[string]*course.SubSection
}

// courseRecord keeps the course's section references as an ordered sequence,
// the way the document model does.
type courseRecord struct {
	course     course.Course
	sectionIDs []string
}

func New() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		profiles:    make(map[string]*user.Profile),
		otps:        make(map[string]*user.OTP),
		courses:     make(map[string]*courseRecord),
		sections:    make(map[string]*course.Section),
		subSections: make(map[string]*course.SubSection),
	}
}

// Reset drops all records.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.profiles = make(map[string]*user.Profile)
	db.otps = make(map[string]*user.OTP)
	db.courses = make(map[string]*courseRecord)
	db.sections = make(map[string]*course.Section)
	db.subSections = make(map[string]*course.SubSection)
}
