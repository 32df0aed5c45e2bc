package main

import (
	"log"

	"hyperfocus/backend/internal/config"
	"hyperfocus/backend/internal/db"
	"hyperfocus/backend/internal/engine"
	"hyperfocus/backend/internal/handler"
	"hyperfocus/backend/internal/repository"
	"hyperfocus/backend/internal/router"
	"hyperfocus/backend/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	planRepo := repository.NewPlanRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)
	snapshotRepo := repository.NewSnapshotRepository(database)
	archiveRepo := repository.NewArchiveRepository(database)

	planRepo.Subscribe(func(userID string) {
		log.Printf("plans changed for user %s", userID)
	})

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	planService := service.NewPlanService(planRepo, categoryRepo)
	focusService := service.NewFocusService(planRepo, snapshotRepo, archiveRepo, engine.SystemClock(), cfg.TimerTick)

	authHandler := handler.NewAuthHandler(authService)
	planHandler := handler.NewPlanHandler(planService)
	focusHandler := handler.NewFocusHandler(focusService)

	srv := router.New(authService, authHandler, planHandler, focusHandler, cfg.CORSOrigins)
	log.Printf("backend listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
