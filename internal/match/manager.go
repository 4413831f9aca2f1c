package match

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/cueroom/backend/internal/config"
	"github.com/cueroom/backend/internal/models"
	"github.com/cueroom/backend/internal/rules"
)

// Broadcaster fans an event out to everyone watching a match. The websocket
// hub implements it; the manager only knows the interface.
type Broadcaster interface {
	BroadcastToMatch(matchID string, message interface{})
}

// Match is one live match: the engine game plus orchestration metadata.
type Match struct {
	ID           string
	Token        string
	Config       rules.GameConfig
	Players      []string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time

	game *rules.Game
	mu   sync.Mutex // serializes transitions for this match
}

// Game exposes the underlying engine game (read-only operations are safe
// without the match lock; the engine has its own).
func (m *Match) Game() *rules.Game {
	return m.game
}

// Manager owns the set of live matches. The DB, Redis client, config and
// broadcaster are injected; nil db/rdb simply disable persistence and the
// snapshot cache so the manager also works as a bare in-memory library.
type Manager struct {
	matches map[string]*Match // keyed by match ID
	tokens  map[string]string // join token -> match ID
	db      *sqlx.DB
	rdb     *redis.Client
	cfg     *config.Config
	hub     Broadcaster
	mu      sync.RWMutex
}

// NewManager creates a match manager.
func NewManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, hub Broadcaster) *Manager {
	return &Manager{
		matches: make(map[string]*Match),
		tokens:  make(map[string]string),
		db:      db,
		rdb:     rdb,
		cfg:     cfg,
		hub:     hub,
	}
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// CreateMatch starts a new match for the given players.
func (m *Manager) CreateMatch(cfg rules.GameConfig, playerIDs []string) (*Match, error) {
	game, err := rules.NewGame(cfg, playerIDs)
	if err != nil {
		return nil, err
	}

	expiry := 60
	if m.cfg != nil && m.cfg.MatchExpiryMinutes > 0 {
		expiry = m.cfg.MatchExpiryMinutes
	}

	now := time.Now()
	mt := &Match{
		ID:           uuid.NewString(),
		Token:        generateToken(8),
		Config:       cfg,
		Players:      append([]string(nil), playerIDs...),
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(time.Duration(expiry) * time.Minute),
		game:         game,
	}

	m.mu.Lock()
	m.matches[mt.ID] = mt
	m.tokens[mt.Token] = mt.ID
	m.mu.Unlock()

	m.saveSnapshot(mt, game.Snapshot())

	log.Printf("[MATCH] Created %s match %s (token=%s, players=%v)", cfg.Variant, mt.ID, mt.Token, playerIDs)
	return mt, nil
}

// GetMatch returns a live match by ID.
func (m *Manager) GetMatch(id string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.matches[id]
	if !ok {
		return nil, errors.New("match not found")
	}
	return mt, nil
}

// GetMatchByToken returns a live match by its join token.
func (m *Manager) GetMatchByToken(token string) (*Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokens[token]
	if !ok {
		return nil, errors.New("match not found")
	}
	return m.matches[id], nil
}

// ApplyTransition validates a proposed snapshot for the match. Transitions
// for one match serialize on its lock; matches never share state, so
// separate matches proceed in parallel.
func (m *Manager) ApplyTransition(token string, proposed *rules.Snapshot) (bool, string, *rules.Snapshot, error) {
	mt, err := m.GetMatchByToken(token)
	if err != nil {
		return false, "", nil, err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	accepted, msg, result := mt.game.Apply(proposed)
	mt.LastActivity = time.Now()

	if !accepted {
		return false, msg, result, nil
	}

	m.saveSnapshot(mt, result)
	if m.hub != nil {
		m.hub.BroadcastToMatch(mt.ID, map[string]interface{}{
			"type":     "snapshot",
			"match_id": mt.ID,
			"message":  msg,
			"snapshot": result,
		})
	}

	if result.Phase == rules.PhaseGameOver {
		m.finishMatch(mt, result)
	}

	return true, msg, result, nil
}

// LegalShots returns the current player's legal shots for a match.
func (m *Manager) LegalShots(token string) ([]rules.LegalShot, error) {
	mt, err := m.GetMatchByToken(token)
	if err != nil {
		return nil, err
	}
	return mt.game.LegalShots(), nil
}

// Score returns one player's ledger record for a match.
func (m *Manager) Score(token, playerID string) (rules.Score, error) {
	mt, err := m.GetMatchByToken(token)
	if err != nil {
		return rules.Score{}, err
	}
	return mt.game.Score(playerID), nil
}

// Forfeit ends a match because a player conceded or was withdrawn.
func (m *Manager) Forfeit(token, playerID string) (rules.WinResult, error) {
	mt, err := m.GetMatchByToken(token)
	if err != nil {
		return rules.WinResult{}, err
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	win, err := mt.game.Forfeit(playerID)
	if err != nil {
		return rules.WinResult{}, err
	}

	snap := mt.game.Snapshot()
	m.saveSnapshot(mt, snap)
	if m.hub != nil {
		m.hub.BroadcastToMatch(mt.ID, map[string]interface{}{
			"type":     "snapshot",
			"match_id": mt.ID,
			"message":  "Game over - " + win.Details,
			"snapshot": snap,
		})
	}
	m.finishMatch(mt, snap)

	log.Printf("[MATCH] %s forfeited by %s, winner %s", mt.ID, playerID, win.WinnerID)
	return win, nil
}

// EndMatch drops a match from the live set.
func (m *Manager) EndMatch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt, ok := m.matches[id]; ok {
		delete(m.tokens, mt.Token)
		delete(m.matches, id)
	}
}

// ActiveMatchCount returns the number of live matches.
func (m *Manager) ActiveMatchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}

// StartExpiryChecker sweeps expired matches until the context is cancelled.
func (m *Manager) StartExpiryChecker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireStaleMatches()
			}
		}
	}()
}

func (m *Manager) expireStaleMatches() {
	now := time.Now()

	m.mu.RLock()
	var stale []*Match
	for _, mt := range m.matches {
		if now.After(mt.ExpiresAt) {
			stale = append(stale, mt)
		}
	}
	m.mu.RUnlock()

	for _, mt := range stale {
		log.Printf("[MATCH] Expiring stale match %s (last activity %s)", mt.ID, mt.LastActivity.Format(time.RFC3339))
		m.EndMatch(mt.ID)
	}
}

// saveSnapshot caches the latest accepted snapshot in Redis.
func (m *Manager) saveSnapshot(mt *Match, snap *rules.Snapshot) {
	if m.rdb == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[MATCH] Failed to marshal snapshot for %s: %v", mt.ID, err)
		return
	}

	ttl := 60
	if m.cfg != nil && m.cfg.SnapshotTTLMinutes > 0 {
		ttl = m.cfg.SnapshotTTLMinutes
	}

	ctx := context.Background()
	key := "match:" + mt.Token + ":snapshot"
	if err := m.rdb.SetEx(ctx, key, data, time.Duration(ttl)*time.Minute).Err(); err != nil {
		log.Printf("[MATCH] Failed to cache snapshot for %s: %v", mt.ID, err)
	}
}

// LoadSnapshot reads the cached snapshot for a token from Redis.
func (m *Manager) LoadSnapshot(token string) (*rules.Snapshot, error) {
	if m.rdb == nil {
		return nil, errors.New("no redis client")
	}

	ctx := context.Background()
	data, err := m.rdb.Get(ctx, "match:"+token+":snapshot").Result()
	if err == redis.Nil {
		return nil, errors.New("snapshot not found in redis")
	}
	if err != nil {
		return nil, err
	}

	var snap rules.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// finishMatch persists the final state and publishes the game-over event.
// Callers hold the match lock.
func (m *Manager) finishMatch(mt *Match, snap *rules.Snapshot) {
	m.publishMatchEvent(mt, snap)
	if err := m.persistMatch(mt, snap); err != nil {
		log.Printf("[MATCH] Failed to persist finished match %s: %v", mt.ID, err)
	}
}

// publishMatchEvent announces a finished match on the match_events channel.
func (m *Manager) publishMatchEvent(mt *Match, snap *rules.Snapshot) {
	if m.rdb == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":          "match_over",
		"match_id":      mt.ID,
		"match_token":   mt.Token,
		"winner_id":     snap.WinnerID,
		"win_condition": snap.WinCondition,
		"win_details":   snap.WinDetails,
	})
	if err != nil {
		return
	}

	if err := m.rdb.Publish(context.Background(), "match_events", payload).Err(); err != nil {
		log.Printf("[MATCH] Failed to publish match_over for %s: %v", mt.ID, err)
	}
}

// MatchHistory returns the most recently completed matches from the DB.
func (m *Manager) MatchHistory(limit int) ([]models.Match, error) {
	if m.db == nil {
		return nil, errors.New("no database configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var matches []models.Match
	err := m.db.Select(&matches, `
		SELECT id, token, variant, status, scoring_mode, target_score,
			winner_id, win_condition, win_details, created_at, completed_at
		FROM matches
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	return matches, nil
}

// MatchStats returns the persisted per-player stats for a completed match.
func (m *Manager) MatchStats(matchID string) ([]models.MatchPlayerStats, error) {
	if m.db == nil {
		return nil, errors.New("no database configured")
	}

	var stats []models.MatchPlayerStats
	err := m.db.Select(&stats, `
		SELECT match_id, player_id, points, fouls, scratches,
			innings, frames_won, longest_run, balls_pocketed
		FROM match_player_stats
		WHERE match_id = $1
		ORDER BY player_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	return stats, nil
}

// persistMatch writes the finished match and its per-player stats to the DB.
func (m *Manager) persistMatch(mt *Match, snap *rules.Snapshot) error {
	if m.db == nil {
		return nil // no DB configured, skip
	}

	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO matches (id, token, variant, status, scoring_mode, target_score,
			winner_id, win_condition, win_details, created_at, completed_at)
		VALUES ($1, $2, $3, 'completed', $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO NOTHING`,
		mt.ID, mt.Token, string(mt.Config.Variant), string(mt.Config.ScoringMode),
		mt.Config.TargetScore, snap.WinnerID, string(snap.WinCondition), snap.WinDetails,
		mt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for _, playerID := range mt.Players {
		s := mt.game.Score(playerID)
		_, err = tx.Exec(`
			INSERT INTO match_player_stats (match_id, player_id, points, fouls, scratches,
				innings, frames_won, longest_run, balls_pocketed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (match_id, player_id) DO NOTHING`,
			mt.ID, playerID, s.Points, s.Fouls, s.Scratches,
			s.Innings, s.FramesWon, s.LongestRun, len(s.BallsPocketed))
		if err != nil {
			return fmt.Errorf("insert stats for %s: %w", playerID, err)
		}
	}

	return tx.Commit()
}
