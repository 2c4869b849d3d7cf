package main

import (
	"os"
	"time"

	_ "medshare-backend/api/swagger" // swagger docs
	"medshare-backend/internal/config"
	"medshare-backend/internal/database"
	"medshare-backend/internal/handler"
	"medshare-backend/internal/middleware"
	"medshare-backend/internal/notify"
	"medshare-backend/internal/repository"
	"medshare-backend/internal/scheduler"
	"medshare-backend/internal/service"
	"medshare-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           MedShare API
// @version         1.0
// @description     Medicine donation and request workflow backend.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := config.Load()

	db, err := database.NewConnection(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Notifications: always log, broadcast to admin dashboards, and
	// send mail when SMTP is configured.
	sinks := []notify.Sink{
		notify.LogSink{Log: log},
		notify.BroadcastSink{Broadcast: wsHub.Broadcast},
	}
	if cfg.SMTPEnabled() {
		sinks = append(sinks, notify.NewMailer(notify.MailerConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.SMTPFrom,
			AdminEmail: cfg.AdminNotifyEmail(),
		}))
	}
	dispatcher := notify.NewDispatcher(log, 256, sinks...)
	defer dispatcher.Close()

	// Repository -> Service -> Handler
	medicineRepo := repository.NewMedicineRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	workflowService := service.NewWorkflowService(
		medicineRepo, requestRepo, userRepo, auditRepo,
		txManager, dispatcher, cfg.ReminderWindow, log,
	)
	userService := service.NewUserService(userRepo, cfg.AdminEmails, middleware.GetJWTSecret())
	statsService := service.NewStatsService(medicineRepo, requestRepo, userRepo)

	authHandler := handler.NewAuthHandler(userService)
	medicineHandler := handler.NewMedicineHandler(workflowService)
	requestHandler := handler.NewRequestHandler(workflowService)
	adminHandler := handler.NewAdminHandler(workflowService, userService, statsService)

	sweeper := scheduler.New(workflowService, cfg.SweepCron, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.SweepCron).Msg("expiry scheduler failed to start")
	}
	defer sweeper.Stop()

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket event feed for admin dashboards
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	authHandler.RegisterRoutes(router.Group(""))
	medicineHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
