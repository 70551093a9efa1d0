package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"soloboss/pkg/ai"
	"soloboss/pkg/domain"
	"soloboss/pkg/storage"
	"soloboss/pkg/store"
)

const (
	defaultHistoryLimit  = 50
	defaultActivityLimit = 20
	maxListLimit         = 200
	defaultDownloadTTL   = 15 * time.Minute

	// recentActivityWindow is the rolling lookback used only by the
	// dashboard's activity count.
	recentActivityWindow = 7 * 24 * time.Hour
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Responder   ai.ResponseStrategy
	Objects     storage.ObjectStore
	DownloadTTL time.Duration
}

// App wires storage, the chat response strategy, and the optional object
// store behind one handler function per use case.
type App struct {
	store       store.Store
	responder   ai.ResponseStrategy
	objects     storage.ObjectStore
	downloadTTL time.Duration
}

// New constructs the application. When no Store is injected a Postgres store
// is opened from DatabaseURL. An empty agent catalog is seeded so the chat
// feature works on a fresh database.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	responder := cfg.Responder
	if responder == nil {
		responder = ai.NewCannedResponder()
	}
	downloadTTL := cfg.DownloadTTL
	if downloadTTL <= 0 {
		downloadTTL = defaultDownloadTTL
	}
	a := &App{
		store:       dataStore,
		responder:   responder,
		objects:     cfg.Objects,
		downloadTTL: downloadTTL,
	}
	if err := a.seedAgents(); err != nil {
		return nil, fmt.Errorf("seed agents: %w", err)
	}
	return a, nil
}

func (a *App) seedAgents() error {
	count, err := a.store.AgentCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, agent := range defaultAgents() {
		if err := a.store.SaveAgent(agent); err != nil {
			return err
		}
	}
	return nil
}

func defaultAgents() []domain.AIAgent {
	return []domain.AIAgent{
		{
			ID:             uuid.NewString(),
			Name:           "Flow",
			Description:    "Keeps your day on track and your task list honest.",
			Specialization: "productivity",
			IsActive:       true,
		},
		{
			ID:             uuid.NewString(),
			Name:           "Compass",
			Description:    "Sounding board for business direction and big decisions.",
			Specialization: "strategy",
			IsActive:       true,
		},
		{
			ID:             uuid.NewString(),
			Name:           "Megaphone",
			Description:    "Ideas for reaching customers without a marketing team.",
			Specialization: "marketing",
			IsActive:       true,
		},
		{
			ID:             uuid.NewString(),
			Name:           "Ledger",
			Description:    "Plain-language help with pricing, cash flow, and budgets.",
			Specialization: "finance",
			IsActive:       true,
		},
		{
			ID:             uuid.NewString(),
			Name:           "Haven",
			Description:    "Reminders that the business runs better when you do.",
			Specialization: "wellness",
			IsActive:       true,
		},
	}
}

// recordActivity appends an activity row after a successful mutation. The
// primary mutation is already committed when this runs; a failure here
// surfaces to the caller without rolling anything back.
func (a *App) recordActivity(ownerID, action, description string, entityType domain.ActivityEntity, entityID string) error {
	entry := domain.ActivityLog{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Action:      action,
		Description: description,
		EntityType:  &entityType,
		EntityID:    &entityID,
	}
	if _, err := a.store.AppendActivity(entry); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}
