package handler

import (
	"time"

	"github.com/go-telegram/bot"

	"github.com/crmline/intakebot/internal/config"
	"github.com/crmline/intakebot/internal/repository"
	"github.com/crmline/intakebot/internal/service"
	"github.com/crmline/intakebot/internal/session"
	"github.com/crmline/intakebot/internal/storage"
	"github.com/crmline/intakebot/internal/workflow"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot          *bot.Bot
	cfg          *config.Config
	engine       *workflow.Engine
	sessions     session.Store
	queryService *service.QueryService
	queries      *repository.Queries
	fileStore    *storage.FileStore
	startedAt    time.Time
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot          *bot.Bot
	Cfg          *config.Config
	Engine       *workflow.Engine
	Sessions     session.Store
	QueryService *service.QueryService
	Queries      *repository.Queries
	FileStore    *storage.FileStore
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:          deps.Bot,
		cfg:          deps.Cfg,
		engine:       deps.Engine,
		sessions:     deps.Sessions,
		queryService: deps.QueryService,
		queries:      deps.Queries,
		fileStore:    deps.FileStore,
		startedAt:    time.Now(),
	}
}
