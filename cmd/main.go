package main

import (
	"context"

	"go.uber.org/zap"

	"learnhub-backend/config"
	httpDelivery "learnhub-backend/internal/delivery/http"
	"learnhub-backend/internal/domain"
	"learnhub-backend/internal/gateway"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/usecase"
	"learnhub-backend/pkg/logger"
	"learnhub-backend/pkg/mail"
	"learnhub-backend/pkg/monitoring"
	"learnhub-backend/pkg/utils"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.Mode)
	defer logger.Log.Sync()
	monitoring.Init()
	utils.SetJWTSecret(cfg.JWTSecret)

	// Connect to databases
	db := config.ConnectDB(cfg)
	postgres := db.PG
	mongo := db.Mongo

	if err := config.AutoMigrate(postgres); err != nil {
		logger.Log.Fatal("migration failed", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(postgres)
	paymentRepo := repository.NewPaymentRepository(postgres)
	courseRepo := repository.NewCourseRepository(mongo)
	enrollmentRepo := repository.NewEnrollmentRepository(mongo)
	submissionRepo := repository.NewSubmissionRepository(mongo)
	assignmentRepo := repository.NewAssignmentRepository(mongo)
	announcementRepo := repository.NewAnnouncementRepository(mongo)
	liveClassRepo := repository.NewLiveClassRepository(mongo)
	noteRepo := repository.NewNoteRepository(mongo)
	profileRepo := repository.NewStudentProfileRepository(mongo)
	fileRepo, err := repository.NewFileRepository(mongo)
	if err != nil {
		logger.Log.Fatal("gridfs init failed", zap.Error(err))
	}

	// External services
	paystack := gateway.NewPaystackGateway(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.CheckoutURL)
	var mailer mail.Service
	if cfg.SendgridAPIKey != "" {
		mailer = mail.NewSendgridService(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFrom)
	} else {
		mailer = mail.NewConsoleService()
	}

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(userRepo, mailer)
	enrollmentUsecase := usecase.NewEnrollmentUsecase(
		enrollmentRepo, courseRepo, paymentRepo, userRepo, profileRepo, paystack, mailer)
	progressUsecase := usecase.NewProgressUsecase(enrollmentRepo, courseRepo, submissionRepo, profileRepo)
	courseUsecase := usecase.NewCourseUsecase(courseRepo, enrollmentRepo)
	classroomUsecase := usecase.NewClassroomUsecase(
		enrollmentRepo, courseRepo, submissionRepo, assignmentRepo, announcementRepo,
		liveClassRepo, noteRepo, userRepo, paymentRepo, progressUsecase, enrollmentUsecase)
	liveClassUsecase := usecase.NewLiveClassUsecase(liveClassRepo, courseRepo)
	announcementUsecase := usecase.NewAnnouncementUsecase(announcementRepo, courseRepo)
	assignmentUsecase := usecase.NewAssignmentUsecase(assignmentRepo, submissionRepo, courseRepo)

	seedAdmin(userRepo)

	handler := httpDelivery.NewHandler(
		authUsecase, courseUsecase, enrollmentUsecase, progressUsecase,
		classroomUsecase, liveClassUsecase, announcementUsecase, assignmentUsecase, fileRepo)

	router := httpDelivery.InitRouter(handler)

	logger.Log.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("mode", cfg.Mode))

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("server failed", zap.Error(err))
	}
}

// seedAdmin makes sure one admin account exists for a fresh database.
func seedAdmin(userRepo domain.UserRepository) {
	ctx := context.Background()
	if existing, _ := userRepo.GetByEmail(ctx, "admin@learnhub.io"); existing != nil && existing.ID != 0 {
		return
	}

	hashed, err := utils.HashPassword("changeme-admin")
	if err != nil {
		logger.Log.Warn("admin seed skipped", zap.Error(err))
		return
	}

	admin := &domain.User{
		Name:     "LearnHub Admin",
		Email:    "admin@learnhub.io",
		Password: hashed,
		Role:     domain.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		logger.Log.Warn("admin seed failed", zap.Error(err))
	}
}
