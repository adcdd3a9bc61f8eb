package app

import (
	"database/sql"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"service-meetings/internal/config"
	"service-meetings/internal/domain"
	"service-meetings/internal/flat"
	transport "service-meetings/internal/http"
	"service-meetings/internal/http/handlers"
	"service-meetings/internal/lifecycle"
	"service-meetings/internal/repository"
	"service-meetings/internal/service"
)

type App struct {
	cfg            *config.Config
	handler        http.Handler
	meetingService *service.MeetingService
}

// New wires the application. db may be nil: the service then runs in
// flat-file-only mode from the start.
func New(db *sql.DB, cfg *config.Config, logger *log.Logger) (*App, error) {
	required, err := cfg.RequiredFields()
	if err != nil {
		return nil, err
	}
	search, err := cfg.SearchFields()
	if err != nil {
		return nil, err
	}

	snapshots := map[domain.Kind]*flat.Store{
		domain.KindMeeting: flat.NewStore(filepath.Join(cfg.DataDir, "meetings.csv")),
		domain.KindPodcast: flat.NewStore(filepath.Join(cfg.DataDir, "podcasts.csv")),
	}

	opts := service.Options{
		Snapshots: snapshots,
		ExportDir: filepath.Join(cfg.DataDir, "exports"),
		Lifecycle: &lifecycle.Engine{Duration: time.Duration(cfg.MeetingDurationMinutes) * time.Minute},
		Required:  required,
		Search:    search,
		Logger:    logger,
	}
	if db != nil {
		opts.TxManager = repository.NewPostgresTxManager(db)
		opts.Records = repository.NewRecordPostgresRepository(db)
		opts.Audit = repository.NewAuditLogPostgresRepository(db)
	}

	meetingService := service.NewMeetingService(opts)

	recordsHandler := handlers.NewRecordsHandler(meetingService)
	router := transport.NewRouter(recordsHandler)

	return &App{cfg: cfg, handler: router.Handler(), meetingService: meetingService}, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Service() *service.MeetingService {
	return a.meetingService
}
