package main

import (
	"math/rand"
	"time"

	"github.com/wfunc/duelserver/config"
	"github.com/wfunc/duelserver/events"
	"github.com/wfunc/duelserver/logger"
	"github.com/wfunc/duelserver/persistence"
	"github.com/wfunc/duelserver/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Optional duel event publisher
	var publisher *events.Publisher
	if cfg.NATS.Enabled {
		publisher, err = events.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer publisher.Close()
		logger.Log.Infof("Publishing duel events to %s", cfg.NATS.URL)
	}

	// Initialize Duel Server
	gameServer := server.NewGameServer(cfg, db, publisher, rand.NewSource(time.Now().UnixNano()))

	// Start Server
	logger.Log.Infof("Starting duel server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
