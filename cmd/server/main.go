package main

import (
	"context"
	"log"

	"student-report-service/internal/api"
	"student-report-service/internal/config"
	"student-report-service/internal/database"
	"student-report-service/internal/services"
	"student-report-service/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize MongoDB client (optional - falls back to in-memory stores)
	var mongoClient *database.MongoDBClient
	if cfg.MongoDB.URI != "" || cfg.MongoDB.Host != "" {
		log.Printf("Initializing MongoDB connection (Host: %s, Port: %s, Database: %s)",
			cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
		mongoClient, err = database.NewMongoDBClient(cfg.MongoDB)
		if err != nil {
			log.Printf("WARNING: Failed to connect to MongoDB (using in-memory stores): %v", err)
			mongoClient = nil
		} else {
			log.Printf("Successfully connected to MongoDB")
			defer mongoClient.Close()
		}
	} else {
		log.Printf("MongoDB not configured (Host and URI are empty), using in-memory stores")
	}

	// Select persistence backends
	var taskStore services.TaskStore
	var recordSource services.RecordSource
	var subscriptionStore services.SubscriptionStore
	if mongoClient != nil {
		taskStore = mongoClient
		recordSource = mongoClient
		subscriptionStore = mongoClient
	} else {
		taskStore = services.NewMemoryTaskStore()
		recordSource = services.NewMemoryRecordSource()
		subscriptionStore = services.NewMemorySubscriptionStore()
	}

	// Select artifact storage: S3 when configured, local filesystem otherwise
	var artifactStore services.ArtifactStore
	localStoragePath := ""
	if cfg.Storage.S3.Bucket != "" && cfg.Storage.S3.AccessKeyID != "" {
		artifactStore, err = services.NewS3ArtifactStore(cfg.Storage.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 artifact store: %v", err)
		}
		log.Printf("Storing report artifacts in S3 bucket %s", cfg.Storage.S3.Bucket)
	} else {
		artifactStore, err = services.NewLocalArtifactStore(cfg.Storage.LocalPath, cfg.Storage.BaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize local artifact store: %v", err)
		}
		localStoragePath = cfg.Storage.LocalPath
		log.Printf("Storing report artifacts in %s", cfg.Storage.LocalPath)
	}

	// Compile the report payload schema
	validator, err := validation.NewReportValidator()
	if err != nil {
		log.Fatalf("Failed to compile report payload schema: %v", err)
	}

	// Initialize services
	statsService := services.NewStatisticsService(recordSource)
	formatterService := services.NewFormatterService()
	jwtService := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL)

	dispatcher := services.NewDispatcher(cfg.Report.Workers, cfg.Report.QueueSize)
	dispatcher.Start()
	defer dispatcher.Stop()

	reportService := services.NewReportService(
		taskStore,
		statsService,
		formatterService,
		artifactStore,
		validator,
		dispatcher,
		cfg.Report.StepDelay,
	)

	// Initialize email, PDF, and scheduled report services
	var emailService *services.EmailService
	var scheduledService *services.ScheduledReportService
	pdfService := services.NewPDFService()

	if cfg.Email.APIKey != "" {
		emailService = services.NewEmailService(cfg.Email)
		scheduledService = services.NewScheduledReportService(reportService, emailService, pdfService, subscriptionStore)

		// Start the cron scheduler
		scheduledService.Start()
		defer scheduledService.Stop()

		// Load and schedule all existing subscriptions
		if err := scheduledService.LoadAndScheduleSubscriptions(context.Background()); err != nil {
			log.Printf("WARNING: Failed to load report subscriptions: %v", err)
		}
	} else {
		log.Printf("SendGrid API key not configured, weekly email reports disabled")
	}

	// Initialize handlers
	handlers := api.NewHandlers(
		reportService,
		statsService,
		formatterService,
		pdfService,
		emailService,
		scheduledService,
		jwtService,
	)

	// Setup routes
	router := api.SetupRoutes(handlers, jwtService, localStoragePath)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
