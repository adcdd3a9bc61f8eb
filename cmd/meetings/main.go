package main

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"service-meetings/internal/app"
	appconfig "service-meetings/internal/config"
	servicemigrations "service-meetings/migrations"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)

	root := &cobra.Command{
		Use:           "meetings",
		Short:         "Meeting and podcast-booking record manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(logger))
	root.AddCommand(newImportCommand(logger))
	root.AddCommand(newExportCommand(logger))
	root.AddCommand(newRefreshCommand(logger))

	if err := root.Execute(); err != nil {
		logger.Fatalf("error: %v", err)
	}
}

type envConfig struct {
	DatabaseURL       string
	HTTPAddr          string
	LogLevel          string
	ConfigPath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
}

func loadEnvConfig() (envConfig, error) {
	var cfg envConfig

	// DATABASE_URL is optional: without it the service runs on the flat
	// snapshot files alone.
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.ConfigPath = getEnv("CONFIG_PATH", "meetings.yaml")

	var err error
	if cfg.DBMaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", 5); err != nil {
		return cfg, err
	}
	if cfg.DBMaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", 2); err != nil {
		return cfg, err
	}
	if cfg.DBConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// buildApp assembles the application. A backend that cannot be reached is
// a mode switch to flat-file-only operation, never a startup failure.
func buildApp(logger *log.Logger) (*app.App, *sql.DB, envConfig, error) {
	env, err := loadEnvConfig()
	if err != nil {
		return nil, nil, env, err
	}

	cfg, err := appconfig.Load(env.ConfigPath)
	if err != nil {
		return nil, nil, env, err
	}

	var db *sql.DB
	if env.DatabaseURL != "" {
		db, err = sql.Open("pgx", env.DatabaseURL)
		if err != nil {
			logger.Printf("failed to open database, running flat-file-only: %v", err)
			db = nil
		}
	}
	if db != nil {
		db.SetMaxOpenConns(env.DBMaxOpenConns)
		db.SetMaxIdleConns(env.DBMaxIdleConns)
		db.SetConnMaxLifetime(env.DBConnMaxLifetime)

		if err := db.Ping(); err != nil {
			logger.Printf("database unreachable, running flat-file-only: %v", err)
			db.Close()
			db = nil
		}
	}
	if db != nil {
		if err := servicemigrations.Up(db); err != nil {
			logger.Printf("migrations failed, running flat-file-only: %v", err)
			db.Close()
			db = nil
		}
	}

	application, err := app.New(db, cfg, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, env, err
	}
	return application, db, env, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &configError{message: "invalid int for " + key + ": " + err.Error()}
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, &configError{message: "invalid duration for " + key + ": " + err.Error()}
	}
	return parsed, nil
}

type configError struct {
	message string
}

func (e *configError) Error() string {
	return e.message
}
