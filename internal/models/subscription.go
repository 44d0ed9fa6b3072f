package models

import "time"

// ReportSubscription opts a student into recurring weekly report emails.
// NextTriggerTime, when set, pins the weekly send to that weekday and time
// of day; otherwise the default schedule applies.
type ReportSubscription struct {
	StudentID       string     `bson:"_id" json:"studentId"`
	Email           string     `bson:"email" json:"email"`
	ReportKind      ReportKind `bson:"reportKind" json:"reportType"`
	NextTriggerTime *time.Time `bson:"nextTriggerTime,omitempty" json:"nextTriggerTime,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
}
