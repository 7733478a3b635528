package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yoockh/facecoach/config"
	"github.com/yoockh/facecoach/internal/api/handlers"
	"github.com/yoockh/facecoach/internal/api/middleware"
	"github.com/yoockh/facecoach/internal/api/routes"
	"github.com/yoockh/facecoach/internal/cache"
	"github.com/yoockh/facecoach/internal/logger"
	"github.com/yoockh/facecoach/internal/providers/tipgen"
	mongorepo "github.com/yoockh/facecoach/internal/repositories/mongo"
	pgrepo "github.com/yoockh/facecoach/internal/repositories/postgres"
	"github.com/yoockh/facecoach/internal/services"
	"github.com/yoockh/facecoach/internal/storage"
	"github.com/yoockh/facecoach/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	log.Info("MongoDB connected")

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("PostgreSQL init error")
	}
	log.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	db := config.MongoDatabase()
	if err := config.EnsureMongoIndexes(db); err != nil {
		log.WithError(err).Fatal("Mongo index error")
	}

	// Repositories
	sessionRepo := mongorepo.NewSessionRepo(db)
	feedbackRepo := mongorepo.NewFeedbackRepo(db)
	profileRepo := pgrepo.NewProfileRepo(config.PostgresDB)

	// Object storage (optional; key moment thumbnails stay inline without it)
	var uploader storage.Uploader
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		log.Warn("GCS_BUCKET not set, thumbnail upload disabled")
	}

	// Tip generation (optional; fallback tip is served without it)
	var tipProvider tipgen.Provider
	if project := os.Getenv("VERTEX_PROJECT_ID"); project != "" {
		location := os.Getenv("VERTEX_LOCATION")
		if location == "" {
			location = "us-central1"
		}
		gemini, err := tipgen.NewVertexGemini(ctx, project, location, os.Getenv("VERTEX_MODEL"))
		if err != nil {
			log.WithError(err).Fatal("Vertex init error")
		}
		defer gemini.Close()
		tipProvider = gemini
	} else {
		log.Warn("VERTEX_PROJECT_ID not set, tip generation disabled")
	}

	// Services
	redisCache := cache.NewRedisCache(config.RedisClient)
	sessionSvc := services.NewSessionService(sessionRepo, feedbackRepo, uploader, redisCache, log)
	profileSvc := services.NewProfileService(profileRepo)

	// Frame workers: Redis stream -> engines, feedback -> pub/sub
	pool := &workers.FrameWorkerPool{
		Redis:    config.RedisClient,
		Sessions: sessionSvc,
		Logger:   log,
	}
	if err := pool.Start(ctx); err != nil {
		log.WithError(err).Fatal("frame worker init error")
	}

	// Handlers
	deps := routes.Deps{
		Session: handlers.NewSessionHandler(sessionSvc),
		Profile: handlers.NewProfileHandler(profileSvc),
		Tip:     handlers.NewTipHandler(tipProvider, redisCache, log),
		WS:      handlers.NewWSHandler(sessionSvc, config.RedisClient, ""),
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	routes.RegisterRoutes(r, deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
