package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/piyush1222p/Samadhan-Kendra/config"
	"github.com/piyush1222p/Samadhan-Kendra/db"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/domain"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/handler"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/repository/memory"
	pgrepo "github.com/piyush1222p/Samadhan-Kendra/internal/identity/repository/postgres"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/service"
	"github.com/piyush1222p/Samadhan-Kendra/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var userRepo domain.UserRepository
	if cfg.DBURL != "" {
		pool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()
		userRepo = pgrepo.NewRepository(pool)
		log.Info("using postgres user repository")
	} else {
		userRepo = memory.NewRepository()
		log.Info("using in-memory user repository")
	}

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenExpiry(), cfg.RefreshTokenExpiry())
	userService := service.NewUserService(userRepo, tokenService, log, cfg.BcryptCost)
	authHandler := handler.NewAuthHandler(userService, tokenService)
	rewardsHandler := handler.NewRewardsHandler(userService)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowCredentials: true,
	}))
	app.Use(handler.RequestLogger(log))
	handler.RegisterRoutes(app, authHandler, rewardsHandler)

	log.Info("listening", zap.String("port", cfg.Port), zap.String("cors_origin", cfg.CORSOrigin))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
