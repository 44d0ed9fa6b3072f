package models

// StudentInfo is the identity block embedded in every report payload
type StudentInfo struct {
	Username   string `bson:"username" json:"username"`
	Email      string `bson:"email" json:"email"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Year       string `bson:"year,omitempty" json:"year,omitempty"`
}

// GPAAnalysis summarizes a student's GPA history
type GPAAnalysis struct {
	CurrentGPA       float64 `bson:"currentGpa" json:"currentGpa"`
	CurrentCGPA      float64 `bson:"currentCgpa" json:"currentCgpa"`
	AverageGPA       float64 `bson:"averageGpa" json:"averageGpa"`
	Trend            string  `bson:"trend" json:"trend"` // improving, declining, stable, insufficient_data
	TotalCredits     int     `bson:"totalCredits" json:"totalCredits"`
	CompletedCredits int     `bson:"completedCredits" json:"completedCredits"`
}

// CoursePerformance is one course's outcome in a performance report
type CoursePerformance struct {
	Course   string  `bson:"course" json:"course"`
	Grade    float64 `bson:"grade" json:"grade"`
	Letter   string  `bson:"letter" json:"letter"`
	Semester string  `bson:"semester" json:"semester"`
	Credits  int     `bson:"credits" json:"credits"`
}

// SemesterGPA is one row of the semester breakdown
type SemesterGPA struct {
	Semester         string  `bson:"semester" json:"semester"`
	GPA              float64 `bson:"gpa" json:"gpa"`
	CGPA             float64 `bson:"cgpa" json:"cgpa"`
	CreditsCompleted int     `bson:"creditsCompleted" json:"creditsCompleted"`
}

// PerformanceReport is the computed academic performance view
type PerformanceReport struct {
	Student           StudentInfo         `bson:"student" json:"student"`
	GPAAnalysis       GPAAnalysis         `bson:"gpaAnalysis" json:"gpaAnalysis"`
	CoursePerformance []CoursePerformance `bson:"coursePerformance" json:"coursePerformance"`
	SemesterBreakdown []SemesterGPA       `bson:"semesterBreakdown" json:"semesterBreakdown"`
	Recommendations   []string            `bson:"recommendations" json:"recommendations"`
	Error             string              `bson:"error,omitempty" json:"error,omitempty"`
}

// EndorsementSummary is the headline numbers of an endorsement report
type EndorsementSummary struct {
	TotalEndorsements    int     `bson:"totalEndorsements" json:"totalEndorsements"`
	AverageRating        float64 `bson:"averageRating" json:"averageRating"`
	UniqueEndorsers      int     `bson:"uniqueEndorsers" json:"uniqueEndorsers"`
	EndorsedAchievements int     `bson:"endorsedAchievements" json:"endorsedAchievements"`
}

// SkillStat aggregates endorsements for one skill
type SkillStat struct {
	Count         int     `bson:"count" json:"count"`
	AverageRating float64 `bson:"averageRating" json:"averageRating"`
}

// RecentEndorsement is one entry of the recent-endorsements list
type RecentEndorsement struct {
	Endorser string `bson:"endorser" json:"endorser"`
	Rating   int    `bson:"rating" json:"rating"`
	Comment  string `bson:"comment,omitempty" json:"comment,omitempty"`
	Skill    string `bson:"skill" json:"skill"` // "General" when the endorsement names no skill
	Date     string `bson:"date" json:"date"`   // YYYY-MM-DD
}

// EndorsementReport is the computed peer endorsement analytics view
type EndorsementReport struct {
	Student            StudentInfo          `bson:"student" json:"student"`
	Summary            EndorsementSummary   `bson:"summary" json:"summary"`
	RatingDistribution map[string]int       `bson:"ratingDistribution" json:"ratingDistribution"` // keys "1".."5"
	SkillAnalytics     map[string]SkillStat `bson:"skillAnalytics" json:"skillAnalytics"`
	RecentEndorsements []RecentEndorsement  `bson:"recentEndorsements" json:"recentEndorsements"`
	Insights           []string             `bson:"insights" json:"insights"`
	Error              string               `bson:"error,omitempty" json:"error,omitempty"`
}

// StudentName returns the username carried by whichever section is present
func (p *ReportPayload) StudentName() string {
	if p.Performance != nil && p.Performance.Student.Username != "" {
		return p.Performance.Student.Username
	}
	if p.Endorsement != nil && p.Endorsement.Student.Username != "" {
		return p.Endorsement.Student.Username
	}
	return ""
}

// ReportPayload is the result of one aggregation run. Exactly one of the
// section pointers is set for performance/endorsement reports; comprehensive
// reports carry both plus the overall assessment. A non-empty Error marks a
// failed aggregation and the sections are not meaningful.
type ReportPayload struct {
	ReportKind        ReportKind         `bson:"reportKind" json:"reportKind"`
	GeneratedAt       string             `bson:"generatedAt" json:"generatedAt"` // ISO 8601
	Performance       *PerformanceReport `bson:"performance,omitempty" json:"performance,omitempty"`
	Endorsement       *EndorsementReport `bson:"endorsement,omitempty" json:"endorsement,omitempty"`
	OverallAssessment []string           `bson:"overallAssessment,omitempty" json:"overallAssessment,omitempty"`
	Error             string             `bson:"error,omitempty" json:"error,omitempty"`
}
