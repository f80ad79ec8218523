package main

import (
	"log"

	"github.com/mark1ns0n/country-days-backend/internal/aggregation"
	"github.com/mark1ns0n/country-days-backend/internal/api"
	"github.com/mark1ns0n/country-days-backend/internal/config"
	"github.com/mark1ns0n/country-days-backend/internal/database"
	"github.com/mark1ns0n/country-days-backend/internal/engine"
	"github.com/mark1ns0n/country-days-backend/internal/repository"
	"github.com/mark1ns0n/country-days-backend/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	stays := repository.NewStayRepository(db)
	logs := repository.NewLogRepository(db)
	summaries := repository.NewSummaryRepository(db)

	agg := aggregation.New(cfg.Timezone)
	stats := service.NewStatsService(stays, summaries, agg)

	// Timeline mutations feed a coalescing refresher: bursts of
	// observations trigger one summary recompute after a quiet period.
	refresher := service.NewRefresher(cfg.RefreshDebounce, stats.RefreshSummaryAsync)
	defer refresher.Stop()

	timeline := service.NewTimelineService(stays, logs, service.TimelineOptions{
		MinSwitchMeters: cfg.MinSwitchMeters,
		ConfirmSamples:  cfg.ConfirmSamples,
		ConfirmWindow:   cfg.ConfirmWindow,
		OnChange:        func(engine.ChangeEvent) { refresher.Request() },
	})

	router := api.SetupRouter(cfg, timeline, stats)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
