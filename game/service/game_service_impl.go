package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/wricardo/stacktower/game/engine"
	"github.com/wricardo/stacktower/logging"
)

// Placement history paging limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface. All engine access
// goes through mu since engines are not safe for concurrent use.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *slog.Logger
	metrics  *Metrics
	mu       sync.Mutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithLogger sets the service logger
func WithLogger(l *slog.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = l }
}

// WithMetrics sets the collectors placements are counted on
func WithMetrics(m *Metrics) Option {
	return func(s *gameServiceImpl) { s.metrics = m }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger).With("component", "service")
	return s
}

// getConfigID returns the config_id for a config display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// loadConfig resolves a config by id, naming the alternatives when missing
func (s *gameServiceImpl) loadConfig(configName string) (*engine.Config, error) {
	if configName == "" {
		return s.configs.GetDefault(), nil
	}

	config, err := s.configs.LoadConfig(configName)
	if err == nil {
		return config, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		ids := make([]string, 0, len(availableConfigs))
		for _, cfg := range availableConfigs {
			ids = append(ids, cfg.ConfigID)
		}
		return nil, fmt.Errorf("%w: '%s', available configs: %v", ErrConfigNotFound, configName, ids)
	}
	return nil, fmt.Errorf("%w: '%s', use /api/configs to list available configurations", ErrConfigNotFound, configName)
}

// getSession looks up a session and marks it accessed
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		AutoTick:       sess.AutoTick,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, autoTick bool) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.loadConfig(configName)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.AutoTick = autoTick
	sess.ConfigID = configName
	if sess.ConfigID == "" {
		sess.ConfigID = s.getConfigID(config.Name)
	}

	s.metrics.setSessions(s.sessions.Count())
	s.logger.Info("session created", "session", sess.ID, "config", sess.ConfigID, "auto_tick", autoTick)

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.metrics.setSessions(s.sessions.Count())
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

// Tick advances a session's clock by deltaTime seconds
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, deltaTime float64) (*TickResult, error) {
	if deltaTime < 0 {
		return nil, fmt.Errorf("delta_time must not be negative, got %v", deltaTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Tick(deltaTime)
	state := sess.Engine.GetState()

	return &TickResult{
		Phase:       state.Phase,
		ActiveTile:  state.ActiveTile(),
		StackOffset: state.StackOffset,
		GameOver:    state.GameOver,
		GameState:   state.Clone(),
	}, nil
}

// TickAutoSessions advances every auto-tick session and returns their IDs.
// Ticking alone does not mark a session accessed, so an auto-tick session
// nobody reads expires after the session TTL.
func (s *gameServiceImpl) TickAutoSessions(ctx context.Context, deltaTime float64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ticked []string
	for _, sess := range s.sessions.List() {
		if !sess.AutoTick {
			continue
		}
		sess.Engine.Tick(deltaTime)
		ticked = append(ticked, sess.ID)
	}
	sort.Strings(ticked)
	return ticked
}

// Place drops the active tile of a session
func (s *gameServiceImpl) Place(ctx context.Context, sessionID string, reset bool) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if reset {
		sess.Engine.Reset()
		sess.Events.RecordReset()
	}

	eng := sess.Engine
	wasOver := eng.IsGameOver()
	outcome := eng.Place()
	events := sess.Events.Drain()
	state := eng.GetState()

	result := &PlaceResult{
		Success:   outcome == engine.OutcomeSuccess,
		Outcome:   outcome,
		Score:     state.Score(),
		Combo:     state.Combo,
		Bounds:    state.Bounds,
		GameState: state.Clone(),
		Events:    events,
	}

	if wasOver {
		result.Message = fmt.Sprintf("Game is over with score %d. Reset to play again.", state.Score())
		return result, nil
	}

	if last := eng.GetLastPlacement(); last != nil {
		entry := *last
		result.Placement = &entry
		result.Message = placementMessage(entry, state)
		s.metrics.observePlacement(entry.Result, events)
		s.logger.Debug("tile placed",
			"session", sess.ID,
			"result", entry.Result,
			"delta", entry.Delta,
			"score", state.Score(),
			"combo", state.Combo)
	}
	if outcome == engine.OutcomeGameOver {
		s.logger.Info("game over", "session", sess.ID, "score", state.Score())
	}

	return result, nil
}

func placementMessage(entry engine.PlacementEntry, state *engine.StackState) string {
	switch entry.Result {
	case engine.ResultHit:
		return fmt.Sprintf("Perfect! Combo x%d", state.Combo)
	case engine.ResultGrow:
		return fmt.Sprintf("Perfect! Combo x%d, footprint grew to %.1f x %.1f",
			state.Combo, state.Bounds.Width, state.Bounds.Depth)
	case engine.ResultCut:
		return fmt.Sprintf("Cut %.1f off, footprint now %.1f x %.1f",
			abs(entry.Delta), state.Bounds.Width, state.Bounds.Depth)
	default:
		return fmt.Sprintf("Game over! Final score: %d", state.Score())
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Reset restarts the game of a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.StackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset()
	// Events from the old game are stale; the reset is reported with the
	// next placement, as Place(reset=true) does.
	sess.Events.Drain()
	sess.Events.RecordReset()
	s.logger.Debug("game reset", "session", sess.ID)
	return state.Clone(), nil
}

// GetGameState returns a snapshot of a session's game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.StackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// GetPlacementHistory returns paginated placement history
func (s *gameServiceImpl) GetPlacementHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return paginate(sess.Engine.GetPlacementHistory(), opts), nil
}

// paginate slices history into a page. Pages count from 1 in the chosen
// order; desc puts the latest placement first.
func paginate(history []engine.PlacementEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	placements := []engine.PlacementEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				placements = append(placements, history[i])
			}
		} else {
			placements = append(placements, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Placements:      placements,
		TotalPlacements: total,
		Page:            opts.Page,
		PageSize:        opts.Limit,
		TotalPages:      totalPages,
		HasNext:         opts.Page < totalPages,
		HasPrevious:     opts.Page > 1,
	}
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.Config, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.Config) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.logger.Info("config saved", "config", configName)
	return nil
}

// TileColor returns the tile color a config assigns to a score
func (s *gameServiceImpl) TileColor(ctx context.Context, configName string, score int) (*ColorInfo, error) {
	config, err := s.loadConfig(configName)
	if err != nil {
		return nil, err
	}

	id := configName
	if id == "" {
		id = s.getConfigID(config.Name)
	}
	return &ColorInfo{
		Score:    score,
		ConfigID: id,
		Hex:      engine.TileColorHex(config, score),
	}, nil
}
