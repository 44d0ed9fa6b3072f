package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"student-report-service/internal/config"
	"student-report-service/internal/database"
	"student-report-service/internal/models"
)

// Seeds MongoDB with a sample student and their academic history so the
// report endpoints have data to work with during development.
func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	studentID := "student-001"
	if len(os.Args) > 1 {
		studentID = os.Args[1]
	}

	fmt.Printf("=== Seeding sample data ===\n\n")
	fmt.Printf("Student ID: %s\n", studentID)
	fmt.Printf("MongoDB Host: %s\n", cfg.MongoDB.Host)
	fmt.Printf("MongoDB Database: %s\n", cfg.MongoDB.Database)
	fmt.Printf("\n")

	client, err := database.NewMongoDBClient(cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	student := &models.Student{
		ID:         studentID,
		Username:   "jane.doe",
		Email:      "jane.doe@example.edu",
		Role:       "student",
		Department: "Computer Science",
		Year:       "3",
	}
	if err := client.SeedStudent(ctx, student); err != nil {
		log.Fatalf("Failed to seed student: %v", err)
	}

	semester := func(year, month int) time.Time {
		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	}

	gpaRecords := []models.GPARecord{
		{StudentID: studentID, Semester: "Fall 2025", SemesterStart: semester(2025, 9), GPA: 3.6, CGPA: 3.4, TotalCredits: 18, CompletedCredits: 18},
		{StudentID: studentID, Semester: "Spring 2025", SemesterStart: semester(2025, 2), GPA: 3.3, CGPA: 3.3, TotalCredits: 18, CompletedCredits: 15},
		{StudentID: studentID, Semester: "Fall 2024", SemesterStart: semester(2024, 9), GPA: 3.1, CGPA: 3.2, TotalCredits: 15, CompletedCredits: 15},
	}
	if err := client.SeedGPARecords(ctx, gpaRecords); err != nil {
		log.Fatalf("Failed to seed GPA records: %v", err)
	}

	grades := []models.Grade{
		{StudentID: studentID, Course: "Algorithms", Semester: "Fall 2025", GradeValue: 92, CreditsEarned: 6},
		{StudentID: studentID, Course: "Operating Systems", Semester: "Fall 2025", GradeValue: 85, CreditsEarned: 6},
		{StudentID: studentID, Course: "Databases", Semester: "Spring 2025", GradeValue: 78, CreditsEarned: 6},
		{StudentID: studentID, Course: "Statistics", Semester: "Spring 2025", GradeValue: 64, CreditsEarned: 3},
	}
	if err := client.SeedGrades(ctx, grades); err != nil {
		log.Fatalf("Failed to seed grades: %v", err)
	}

	endorsed := func(daysAgo int) time.Time {
		return time.Now().AddDate(0, 0, -daysAgo)
	}

	endorsements := []models.Endorsement{
		{TargetID: studentID, Endorser: "alex.kim", Skill: "Teamwork", Rating: 5, Comment: "Great collaborator on the capstone project", CreatedAt: endorsed(2)},
		{TargetID: studentID, Endorser: "sam.lee", Skill: "Programming", Rating: 4, Comment: "Strong debugging skills", CreatedAt: endorsed(10)},
		{TargetID: studentID, Endorser: "chris.park", Skill: "Programming", Rating: 5, CreatedAt: endorsed(21)},
		{TargetID: studentID, Endorser: "morgan.ray", Rating: 4, Comment: "Always helpful in study groups", CreatedAt: endorsed(35)},
		{TargetID: studentID, Endorser: "taylor.cho", Skill: "Leadership", Achievement: "Hackathon Winner", Rating: 5, CreatedAt: endorsed(60)},
	}
	if err := client.SeedEndorsements(ctx, endorsements); err != nil {
		log.Fatalf("Failed to seed endorsements: %v", err)
	}

	achievements := []models.Achievement{
		{StudentID: studentID, Title: "Hackathon Winner", Type: "competition", DateAchieved: endorsed(60)},
		{StudentID: studentID, Title: "Dean's List", Type: "academic", DateAchieved: endorsed(120)},
	}
	if err := client.SeedAchievements(ctx, achievements); err != nil {
		log.Fatalf("Failed to seed achievements: %v", err)
	}

	fmt.Printf("Seeded 1 student, %d GPA records, %d grades, %d endorsements, %d achievements\n",
		len(gpaRecords), len(grades), len(endorsements), len(achievements))
}
