package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classtrack-api/internal/config"
	"github.com/noah-isme/classtrack-api/internal/database"
	"github.com/noah-isme/classtrack-api/internal/handler"
	"github.com/noah-isme/classtrack-api/internal/middleware"
	"github.com/noah-isme/classtrack-api/internal/models"
	"github.com/noah-isme/classtrack-api/internal/repository"
	"github.com/noah-isme/classtrack-api/internal/router"
	"github.com/noah-isme/classtrack-api/internal/service"
	cloud "github.com/noah-isme/classtrack-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Classroom{},
		&models.Enrollment{},
		&models.AttendanceRecord{},
		&models.Assignment{},
		&models.Submission{},
		&models.SubmissionHistory{},
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.QuizAttempt{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	classroomRepo := repository.NewClassroomRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)

	notifier := service.NewBrokerNotifier(redisClient, cfg.EventChannel, natsConn, cfg.EventSubject, logger)

	rosterService := service.NewRosterService(enrollmentRepo, classroomRepo, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, rosterService, validate, uploader, notifier, service.FilePolicy{
		AllowedExtensions: cfg.UploadAllowedExts,
		MaxBytes:          int64(cfg.UploadMaxMB) << 20,
	}, logger)
	quizService := service.NewQuizService(quizRepo, attemptRepo, rosterService, validate, notifier, logger)
	standingService := service.NewStandingService(enrollmentRepo, assignmentRepo, quizRepo, submissionService, quizService, attendanceService, notifier, redisClient, cfg.StandingCacheTTL, logger)

	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	quizHandler := handler.NewQuizHandler(quizService, logger)
	standingHandler := handler.NewStandingHandler(standingService, logger)
	rosterHandler := handler.NewRosterHandler(rosterService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AttendanceHandler: attendanceHandler,
		SubmissionHandler: submissionHandler,
		QuizHandler:       quizHandler,
		StandingHandler:   standingHandler,
		RosterHandler:     rosterHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
