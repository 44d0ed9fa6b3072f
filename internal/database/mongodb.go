package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"student-report-service/internal/config"
	"student-report-service/internal/models"
	"student-report-service/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBClient wraps MongoDB access for report tasks, student records, and
// subscriptions. It implements services.TaskStore, services.RecordSource, and
// services.SubscriptionStore.
type MongoDBClient struct {
	client   *mongo.Client
	database *mongo.Database

	tasksCollection         *mongo.Collection
	studentsCollection      *mongo.Collection
	gpaRecordsCollection    *mongo.Collection
	gradesCollection        *mongo.Collection
	endorsementsCollection  *mongo.Collection
	achievementsCollection  *mongo.Collection
	subscriptionsCollection *mongo.Collection
}

// writableStatuses matches only non-terminal tasks. Every task update filters
// on it so a completed or failed task can never be mutated.
var writableStatuses = bson.M{"$in": bson.A{
	string(models.TaskStatusPending),
	string(models.TaskStatusProcessing),
}}

// NewMongoDBClient connects to MongoDB and ensures the indexes
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Build connection URI
	uri := cfg.URI
	if uri == "" {
		// Build URI from components if URI not provided
		if cfg.Username != "" && cfg.Password != "" {
			// Use url.UserPassword to properly encode username and password
			userInfo := url.UserPassword(cfg.Username, cfg.Password)
			uri = fmt.Sprintf("mongodb://%s@%s:%s/%s?authSource=%s",
				userInfo.String(),
				cfg.Host,
				cfg.Port,
				cfg.Database,
				url.QueryEscape(cfg.AuthSource),
			)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%s/%s",
				cfg.Host,
				cfg.Port,
				cfg.Database,
			)
		}
	}

	// Log connection attempt (mask password for security)
	logURI := uri
	if cfg.Password != "" && cfg.Username != "" {
		userInfo := url.User(cfg.Username)
		authSource := cfg.AuthSource
		if authSource == "" {
			authSource = "admin"
		}
		logURI = fmt.Sprintf("mongodb://%s:***@%s:%s/%s?authSource=%s",
			userInfo.String(), cfg.Host, cfg.Port, cfg.Database, url.QueryEscape(authSource))
	}
	log.Printf("Attempting to connect to MongoDB at %s", logURI)

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", logURI, err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", logURI, err)
	}

	database := client.Database(cfg.Database)

	c := &MongoDBClient{
		client:                  client,
		database:                database,
		tasksCollection:         database.Collection("report_tasks"),
		studentsCollection:      database.Collection("students"),
		gpaRecordsCollection:    database.Collection("gpa_records"),
		gradesCollection:        database.Collection("grades"),
		endorsementsCollection:  database.Collection("endorsements"),
		achievementsCollection:  database.Collection("achievements"),
		subscriptionsCollection: database.Collection("report_subscriptions"),
	}

	c.ensureIndexes(ctx)

	return c, nil
}

// ensureIndexes creates the lookup indexes. Index creation failures are
// logged, not fatal: the index might already exist.
func (c *MongoDBClient) ensureIndexes(ctx context.Context) {
	taskIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	if _, err := c.tasksCollection.Indexes().CreateOne(ctx, taskIndex); err != nil {
		log.Printf("Note: MongoDB report_tasks index creation: %v", err)
	}

	studentIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "studentId", Value: 1}},
	}
	for _, coll := range []*mongo.Collection{c.gpaRecordsCollection, c.gradesCollection, c.achievementsCollection} {
		if _, err := coll.Indexes().CreateOne(ctx, studentIDIndex); err != nil {
			log.Printf("Note: MongoDB %s index creation: %v", coll.Name(), err)
		}
	}

	endorsementIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "targetId", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	if _, err := c.endorsementsCollection.Indexes().CreateOne(ctx, endorsementIndex); err != nil {
		log.Printf("Note: MongoDB endorsements index creation: %v", err)
	}
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// Create stores a new report task
func (c *MongoDBClient) Create(ctx context.Context, task *models.ReportTask) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.tasksCollection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert report task: %w", err)
	}
	return nil
}

// Get returns the task by ID
func (c *MongoDBClient) Get(ctx context.Context, taskID string) (*models.ReportTask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var task models.ReportTask
	err := c.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to query report task: %w", err)
	}
	return &task, nil
}

// ListByStudent returns all of a student's tasks, newest first
func (c *MongoDBClient) ListByStudent(ctx context.Context, studentID string) ([]models.ReportTask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.tasksCollection.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query report tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.ReportTask
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode report tasks: %w", err)
	}
	return tasks, nil
}

// MarkProcessing moves a pending task into processing
func (c *MongoDBClient) MarkProcessing(ctx context.Context, taskID, title string) error {
	return c.updateTask(ctx, taskID, bson.M{
		"status": string(models.TaskStatusProcessing),
		"title":  title,
	})
}

// SetProgress records a progress step on a processing task
func (c *MongoDBClient) SetProgress(ctx context.Context, taskID string, progress int, message string) error {
	return c.updateTask(ctx, taskID, bson.M{
		"progress": progress,
		"message":  message,
	})
}

// Complete moves a task into the completed terminal state
func (c *MongoDBClient) Complete(ctx context.Context, taskID string, result *models.ReportPayload, fileURL string) error {
	update := bson.M{
		"status":      string(models.TaskStatusCompleted),
		"progress":    100,
		"message":     "Report generated successfully!",
		"result":      result,
		"completedAt": time.Now(),
	}
	if fileURL != "" {
		update["fileUrl"] = fileURL
	}
	return c.updateTask(ctx, taskID, update)
}

// Fail moves a task into the failed terminal state
func (c *MongoDBClient) Fail(ctx context.Context, taskID string, errMsg string) error {
	return c.updateTask(ctx, taskID, bson.M{
		"status": string(models.TaskStatusFailed),
		"error":  errMsg,
	})
}

// updateTask applies a $set to a task, refusing to touch terminal tasks
func (c *MongoDBClient) updateTask(ctx context.Context, taskID string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": taskID, "status": writableStatuses}
	result, err := c.tasksCollection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update report task: %w", err)
	}
	if result.MatchedCount == 0 {
		// Either the task does not exist or it has already reached a
		// terminal state.
		count, countErr := c.tasksCollection.CountDocuments(ctx, bson.M{"_id": taskID})
		if countErr == nil && count == 0 {
			return services.ErrTaskNotFound
		}
		return fmt.Errorf("task %s is terminal and cannot be updated", taskID)
	}
	return nil
}

// Student returns the student identity record. An unknown student yields an
// empty identity so missing records read as empty history, not as a failure.
func (c *MongoDBClient) Student(ctx context.Context, studentID string) (*models.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var student models.Student
	err := c.studentsCollection.FindOne(ctx, bson.M{"_id": studentID}).Decode(&student)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &models.Student{ID: studentID, Username: studentID}, nil
		}
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return &student, nil
}

// GPARecords returns the student's GPA history, most recent semester first
func (c *MongoDBClient) GPARecords(ctx context.Context, studentID string) ([]models.GPARecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "semesterStart", Value: -1}})
	cursor, err := c.gpaRecordsCollection.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query GPA records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.GPARecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode GPA records: %w", err)
	}
	return records, nil
}

// Grades returns the student's per-course grades
func (c *MongoDBClient) Grades(ctx context.Context, studentID string) ([]models.Grade, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := c.gradesCollection.Find(ctx, bson.M{"studentId": studentID})
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer cursor.Close(ctx)

	var grades []models.Grade
	if err := cursor.All(ctx, &grades); err != nil {
		return nil, fmt.Errorf("failed to decode grades: %w", err)
	}
	return grades, nil
}

// Endorsements returns endorsements received by the student, newest first
func (c *MongoDBClient) Endorsements(ctx context.Context, studentID string) ([]models.Endorsement, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := c.endorsementsCollection.Find(ctx, bson.M{"targetId": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query endorsements: %w", err)
	}
	defer cursor.Close(ctx)

	var endorsements []models.Endorsement
	if err := cursor.All(ctx, &endorsements); err != nil {
		return nil, fmt.Errorf("failed to decode endorsements: %w", err)
	}
	return endorsements, nil
}

// Achievements returns the student's achievements
func (c *MongoDBClient) Achievements(ctx context.Context, studentID string) ([]models.Achievement, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := c.achievementsCollection.Find(ctx, bson.M{"studentId": studentID})
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer cursor.Close(ctx)

	var achievements []models.Achievement
	if err := cursor.All(ctx, &achievements); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	return achievements, nil
}

// UpsertSubscription stores a weekly report subscription, replacing any
// existing one for the student
func (c *MongoDBClient) UpsertSubscription(ctx context.Context, sub *models.ReportSubscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": sub.StudentID}
	update := bson.M{"$set": sub}

	if _, err := c.subscriptionsCollection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// RemoveSubscription deletes a student's subscription
func (c *MongoDBClient) RemoveSubscription(ctx context.Context, studentID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.subscriptionsCollection.DeleteOne(ctx, bson.M{"_id": studentID}); err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}
	return nil
}

// GetSubscription returns a student's subscription, or nil when none exists
func (c *MongoDBClient) GetSubscription(ctx context.Context, studentID string) (*models.ReportSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sub models.ReportSubscription
	err := c.subscriptionsCollection.FindOne(ctx, bson.M{"_id": studentID}).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return &sub, nil
}

// ListSubscriptions returns all weekly report subscriptions
func (c *MongoDBClient) ListSubscriptions(ctx context.Context) ([]models.ReportSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := c.subscriptionsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.ReportSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

// SeedStudent inserts or replaces a student document. Used by the seeding tool.
func (c *MongoDBClient) SeedStudent(ctx context.Context, student *models.Student) error {
	opts := options.Update().SetUpsert(true)
	_, err := c.studentsCollection.UpdateOne(ctx, bson.M{"_id": student.ID}, bson.M{"$set": student}, opts)
	if err != nil {
		return fmt.Errorf("failed to seed student: %w", err)
	}
	return nil
}

// SeedGPARecords inserts GPA records. Used by the seeding tool.
func (c *MongoDBClient) SeedGPARecords(ctx context.Context, records []models.GPARecord) error {
	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	if _, err := c.gpaRecordsCollection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed GPA records: %w", err)
	}
	return nil
}

// SeedGrades inserts grade records. Used by the seeding tool.
func (c *MongoDBClient) SeedGrades(ctx context.Context, grades []models.Grade) error {
	docs := make([]interface{}, len(grades))
	for i := range grades {
		docs[i] = grades[i]
	}
	if _, err := c.gradesCollection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed grades: %w", err)
	}
	return nil
}

// SeedEndorsements inserts endorsement records. Used by the seeding tool.
func (c *MongoDBClient) SeedEndorsements(ctx context.Context, endorsements []models.Endorsement) error {
	docs := make([]interface{}, len(endorsements))
	for i := range endorsements {
		docs[i] = endorsements[i]
	}
	if _, err := c.endorsementsCollection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed endorsements: %w", err)
	}
	return nil
}

// SeedAchievements inserts achievement records. Used by the seeding tool.
func (c *MongoDBClient) SeedAchievements(ctx context.Context, achievements []models.Achievement) error {
	docs := make([]interface{}, len(achievements))
	for i := range achievements {
		docs[i] = achievements[i]
	}
	if _, err := c.achievementsCollection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed achievements: %w", err)
	}
	return nil
}
