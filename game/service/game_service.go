package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/stacktower/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, autoTick bool) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Tick(ctx context.Context, sessionID string, deltaTime float64) (*TickResult, error)
	Place(ctx context.Context, sessionID string, reset bool) (*PlaceResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.StackState, error)
	TickAutoSessions(ctx context.Context, deltaTime float64) []string

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.StackState, error)
	GetPlacementHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.Config, error)
	SaveConfig(ctx context.Context, configName string, config *engine.Config) error
	TileColor(ctx context.Context, configName string, score int) (*ColorInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.Config) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.Config) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Count() int
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.Config, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.Config
	SaveConfig(name string, config *engine.Config) error
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.StackEngine
	Config         *engine.Config
	Events         *EventRecorder
	AutoTick       bool
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
