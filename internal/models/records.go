package models

import "time"

// Student is the identity record a report describes
type Student struct {
	ID         string `bson:"_id" json:"id"`
	Username   string `bson:"username" json:"username"`
	Email      string `bson:"email" json:"email"`
	Role       string `bson:"role" json:"role"` // student, lecturer, admin
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Year       string `bson:"year,omitempty" json:"year,omitempty"`
}

// GPARecord is one semester's GPA entry for a student
type GPARecord struct {
	StudentID        string    `bson:"studentId" json:"studentId"`
	Semester         string    `bson:"semester" json:"semester"`
	SemesterStart    time.Time `bson:"semesterStart" json:"semesterStart"`
	GPA              float64   `bson:"gpa" json:"gpa"`
	CGPA             float64   `bson:"cgpa" json:"cgpa"`
	TotalCredits     int       `bson:"totalCredits" json:"totalCredits"`
	CompletedCredits int       `bson:"completedCredits" json:"completedCredits"`
}

// Grade is a per-course grade on a 0-100 scale
type Grade struct {
	StudentID     string  `bson:"studentId" json:"studentId"`
	Course        string  `bson:"course" json:"course"`
	Semester      string  `bson:"semester" json:"semester"`
	GradeValue    float64 `bson:"gradeValue" json:"gradeValue"`
	CreditsEarned int     `bson:"creditsEarned" json:"creditsEarned"`
}

// Letter maps the numeric grade to a letter grade
func (g Grade) Letter() string {
	switch {
	case g.GradeValue >= 90:
		return "A"
	case g.GradeValue >= 80:
		return "B"
	case g.GradeValue >= 70:
		return "C"
	case g.GradeValue >= 60:
		return "D"
	}
	return "F"
}

// Endorsement is a peer rating (1-5 stars) received by a student,
// optionally tied to a skill and/or an achievement
type Endorsement struct {
	TargetID    string    `bson:"targetId" json:"targetId"`
	Endorser    string    `bson:"endorser" json:"endorser"`
	Skill       string    `bson:"skill,omitempty" json:"skill,omitempty"`
	Achievement string    `bson:"achievement,omitempty" json:"achievement,omitempty"`
	Rating      int       `bson:"rating" json:"rating"`
	Comment     string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// Achievement is a student accomplishment record
type Achievement struct {
	StudentID    string    `bson:"studentId" json:"studentId"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description,omitempty" json:"description,omitempty"`
	Type         string    `bson:"type,omitempty" json:"type,omitempty"`
	DateAchieved time.Time `bson:"dateAchieved" json:"dateAchieved"`
}
