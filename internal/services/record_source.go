package services

import (
	"context"
	"sync"

	"student-report-service/internal/models"
)

// RecordSource is the read-only collaborator supplying a student's stored
// academic history. GPA records and endorsements are ordered most recent
// first. Any failure here surfaces as an aggregation error marker, never as
// a panic past the aggregator boundary.
type RecordSource interface {
	Student(ctx context.Context, studentID string) (*models.Student, error)
	GPARecords(ctx context.Context, studentID string) ([]models.GPARecord, error)
	Grades(ctx context.Context, studentID string) ([]models.Grade, error)
	Endorsements(ctx context.Context, studentID string) ([]models.Endorsement, error)
	Achievements(ctx context.Context, studentID string) ([]models.Achievement, error)
}

// MemoryRecordSource serves student records from memory. Used when MongoDB
// is not configured and by the test suite.
type MemoryRecordSource struct {
	students     map[string]models.Student
	gpaRecords   map[string][]models.GPARecord
	grades       map[string][]models.Grade
	endorsements map[string][]models.Endorsement
	achievements map[string][]models.Achievement
	mutex        sync.RWMutex
}

// NewMemoryRecordSource creates an empty in-memory record source
func NewMemoryRecordSource() *MemoryRecordSource {
	return &MemoryRecordSource{
		students:     make(map[string]models.Student),
		gpaRecords:   make(map[string][]models.GPARecord),
		grades:       make(map[string][]models.Grade),
		endorsements: make(map[string][]models.Endorsement),
		achievements: make(map[string][]models.Achievement),
	}
}

// AddStudent registers a student identity
func (s *MemoryRecordSource) AddStudent(student models.Student) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.students[student.ID] = student
}

// AddGPARecords appends GPA records for a student (caller supplies them most recent first)
func (s *MemoryRecordSource) AddGPARecords(studentID string, records ...models.GPARecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gpaRecords[studentID] = append(s.gpaRecords[studentID], records...)
}

// AddGrades appends grade records for a student
func (s *MemoryRecordSource) AddGrades(studentID string, grades ...models.Grade) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.grades[studentID] = append(s.grades[studentID], grades...)
}

// AddEndorsements appends endorsements for a student (most recent first)
func (s *MemoryRecordSource) AddEndorsements(studentID string, endorsements ...models.Endorsement) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.endorsements[studentID] = append(s.endorsements[studentID], endorsements...)
}

// AddAchievements appends achievements for a student
func (s *MemoryRecordSource) AddAchievements(studentID string, achievements ...models.Achievement) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.achievements[studentID] = append(s.achievements[studentID], achievements...)
}

// Student returns the student identity record
func (s *MemoryRecordSource) Student(ctx context.Context, studentID string) (*models.Student, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	student, exists := s.students[studentID]
	if !exists {
		// An unknown student still yields an empty identity; the aggregator
		// treats missing records as empty history, not as a failure.
		return &models.Student{ID: studentID, Username: studentID}, nil
	}
	return &student, nil
}

// GPARecords returns the student's GPA history, most recent first
func (s *MemoryRecordSource) GPARecords(ctx context.Context, studentID string) ([]models.GPARecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.GPARecord(nil), s.gpaRecords[studentID]...), nil
}

// Grades returns the student's per-course grades
func (s *MemoryRecordSource) Grades(ctx context.Context, studentID string) ([]models.Grade, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.Grade(nil), s.grades[studentID]...), nil
}

// Endorsements returns endorsements received by the student, most recent first
func (s *MemoryRecordSource) Endorsements(ctx context.Context, studentID string) ([]models.Endorsement, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.Endorsement(nil), s.endorsements[studentID]...), nil
}

// Achievements returns the student's achievements
func (s *MemoryRecordSource) Achievements(ctx context.Context, studentID string) ([]models.Achievement, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.Achievement(nil), s.achievements[studentID]...), nil
}
