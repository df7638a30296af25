// Package internal bootstraps the server: configuration, database, managers and router.
package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"whisperbox/internal/config"
	"whisperbox/internal/managers"
	"whisperbox/internal/migrations"
	"whisperbox/internal/routing"
)

func Init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("error loading configuration: ", err)
	}

	setLogLevel(cfg.LogLevel)

	// Connect to database and bring the schema up to date
	pool := initializeDatabase(cfg)
	defer pool.Close()

	runMigrations(cfg)

	// Initialize database manager
	databaseMgr := managers.NewDatabaseManager(pool)

	// Initialize mail manager
	mailMgr := managers.NewMailManager(cfg)

	// Initialize JWT manager
	jwtMgr, err := managers.NewJWTManagerFromFile(cfg.KeyPairPath)
	if err != nil {
		log.Fatal("error initializing JWT manager: ", err)
	}

	// Initialize suggestion manager
	suggestionMgr := managers.NewSuggestionManager(cfg)

	// Initialize router
	r := routing.InitRouter(databaseMgr, mailMgr, jwtMgr, suggestionMgr, cfg)
	log.Println("Initialized router")

	// Handle interrupt signal gracefully
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)

		<-c
		log.Println("Server shutting down...")
		os.Exit(0)
	}()

	// Start server on the specified port
	log.Printf("Starting server on port %s...\n", cfg.Port)
	err = http.ListenAndServe(":"+cfg.Port, r)
	if err != nil {
		log.Fatal("Error starting server: ", err)
	}
}

func initializeDatabase(cfg *config.Config) *pgxpool.Pool {
	log.Info("Initializing database")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		log.Fatal("error configuring database: ", err)
	}

	poolConfig.MinConns = 5
	poolConfig.MaxConns = 30
	poolConfig.MaxConnIdleTime = time.Minute * 2
	poolConfig.HealthCheckPeriod = time.Minute * 1

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatal("error connecting to database: ", err)
	}
	log.Info("Connected to database")
	return pool
}

func runMigrations(cfg *config.Config) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatal("error loading migrations: ", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL())
	if err != nil {
		log.Fatal("error initializing migrator: ", err)
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("error running migrations: ", err)
	}

	log.Info("Database schema up to date")
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "INFO":
		log.SetLevel(log.InfoLevel)
	case "WARN":
		log.SetLevel(log.WarnLevel)
	case "ERROR":
		log.SetLevel(log.ErrorLevel)
	case "FATAL":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	log.SetReportCaller(true)

	log.SetOutput(os.Stdout)
}
