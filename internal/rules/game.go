package rules

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// GameConfig fixes the parameters of a game at creation time.
type GameConfig struct {
	Variant     Variant      `json:"variant"`
	ScoringMode ScoringMode  `json:"scoring_mode"`
	TargetScore int          `json:"target_score"`
	Rules       SpecialRules `json:"rules"`
}

// Game binds one snapshot to its ledger, detector and validator behind a
// single mutex. Concurrent shot and foul events for the same game serialize
// here; separate games share nothing.
type Game struct {
	mu        sync.Mutex
	config    GameConfig
	ledger    *Ledger
	detector  *Detector
	validator *Validator
	snapshot  *Snapshot
	createdAt time.Time
}

// NewGame creates a game for the given players and advances it from
// Initializing to Ready with a full rack and the first player on the break.
func NewGame(cfg GameConfig, playerIDs []string) (*Game, error) {
	if !cfg.Variant.Valid() {
		return nil, fmt.Errorf("unsupported variant %q", cfg.Variant)
	}
	if len(playerIDs) < 2 {
		return nil, errors.New("a game needs at least two players")
	}
	if cfg.ScoringMode == "" {
		cfg.ScoringMode = ModePoints
	}

	ledger := NewLedger(cfg.Variant)
	detector := NewDetector(cfg.Variant, cfg.ScoringMode, cfg.TargetScore, cfg.Rules)
	validator := NewValidator(cfg.Variant, ledger, detector)

	snap := &Snapshot{
		Phase:           PhaseInitializing,
		Players:         append([]string(nil), playerIDs...),
		CurrentPlayerID: playerIDs[0],
		Balls:           cfg.Variant.Rack(),
		IsBreakShot:     true,
	}
	if cfg.Variant == EightBall {
		snap.IsOpenTable = true
		snap.Groups = make(map[string]Group, len(playerIDs))
		for _, id := range playerIDs {
			snap.Groups[id] = GroupUnassigned
		}
	}

	g := &Game{
		config:    cfg,
		ledger:    ledger,
		detector:  detector,
		validator: validator,
		snapshot:  snap,
		createdAt: time.Now(),
	}

	ready := snap.Clone()
	ready.Phase = PhaseReady
	ok, msg, result := validator.ValidateTransition(snap, ready)
	if !ok {
		return nil, fmt.Errorf("initial transition rejected: %s", msg)
	}
	g.snapshot = result
	ledger.StartFrame(1)

	return g, nil
}

// Config returns the game's fixed configuration.
func (g *Game) Config() GameConfig {
	return g.config
}

// Snapshot returns a copy of the current accepted snapshot.
func (g *Game) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot.Clone()
}

// Apply validates a proposed snapshot against the current one. When the
// transition is accepted the result becomes the game's new state; otherwise
// the game is unchanged and the rejection message explains why.
func (g *Game) Apply(proposed *Snapshot) (bool, string, *Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	accepted, msg, result := g.validator.ValidateTransition(g.snapshot, proposed)
	if accepted {
		g.snapshot = result
	}
	return accepted, msg, result.Clone()
}

// LegalShots enumerates the current player's legal shots.
func (g *Game) LegalShots() []LegalShot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validator.LegalShots(g.snapshot)
}

// Score returns a read-only copy of the player's ledger record.
func (g *Game) Score(playerID string) Score {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.PlayerScore(playerID)
}

// Scores returns every player's ledger record.
func (g *Game) Scores() map[string]Score {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Scores()
}

// Summary returns the game's statistics projection.
func (g *Game) Summary() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Summarize()
}

// SetSpecialRule toggles one of the game's special rules. Unknown rules are
// rejected.
func (g *Game) SetSpecialRule(rule SpecialRule, enabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.detector.SetSpecialRule(rule, enabled)
}

// Over reports whether the game has reached its terminal phase.
func (g *Game) Over() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot.Phase == PhaseGameOver
}

// Forfeit ends the game in the opponent's favor because playerID gave up or
// was withdrawn. It is the one path to GameOver that bypasses transition
// validation, since a forfeit can arrive in any phase.
func (g *Game) Forfeit(playerID string) (WinResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.snapshot.Phase == PhaseGameOver {
		return WinResult{}, errors.New("game is already over")
	}
	if !g.snapshot.HasPlayer(playerID) {
		return WinResult{}, fmt.Errorf("unknown player %q", playerID)
	}

	win := winner(g.snapshot.Opponent(playerID), WinOpponentForfeit, "Opponent forfeited the game")

	g.snapshot.Phase = PhaseGameOver
	g.snapshot.WinnerID = win.WinnerID
	g.snapshot.WinCondition = win.Condition
	g.snapshot.WinDetails = win.Details
	g.snapshot.Scores = g.ledger.Scores()
	g.ledger.EndFrame(win.WinnerID)

	return win, nil
}
