package rules

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Variant identifies the pool game variant being played.
type Variant string

const (
	EightBall Variant = "8ball"
	NineBall  Variant = "9ball"
)

// Valid reports whether the variant is one this engine knows how to referee.
func (v Variant) Valid() bool {
	return v == EightBall || v == NineBall
}

// TerminalBall returns the game-ending ball for the variant.
func (v Variant) TerminalBall() int {
	if v == NineBall {
		return 9
	}
	return 8
}

// BallCount returns the number of balls on the table including the cue ball.
func (v Variant) BallCount() int {
	if v == NineBall {
		return 10 // cue + 1-9
	}
	return 16 // cue + 1-15
}

// PointsFor returns the points awarded for pocketing a ball. In 9-ball the
// money ball is worth 2 points; everything else scores 1.
func (v Variant) PointsFor(ball int) int {
	if v == NineBall && ball == 9 {
		return 2
	}
	return 1
}

// Rack returns the full set of balls for the variant, all on the table.
func (v Variant) Rack() []Ball {
	balls := make([]Ball, v.BallCount())
	for i := range balls {
		balls[i] = Ball{Number: i}
	}
	return balls
}

// Phase is the lifecycle state of a game. GameOver is terminal.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseReady
	PhaseInProgress
	PhaseShotInProgress
	PhaseBallInHand
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseInitializing:   "initializing",
	PhaseReady:          "ready",
	PhaseInProgress:     "in_progress",
	PhaseShotInProgress: "shot_in_progress",
	PhaseBallInHand:     "ball_in_hand",
	PhaseGameOver:       "game_over",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// successors returns the legal next phases. Every phase must appear in this
// switch so that adding a phase fails to compile until the table is revisited.
func (p Phase) successors() []Phase {
	switch p {
	case PhaseInitializing:
		return []Phase{PhaseReady}
	case PhaseReady:
		return []Phase{PhaseInProgress, PhaseBallInHand}
	case PhaseInProgress:
		return []Phase{PhaseShotInProgress, PhaseBallInHand, PhaseGameOver}
	case PhaseShotInProgress:
		return []Phase{PhaseInProgress, PhaseBallInHand, PhaseGameOver}
	case PhaseBallInHand:
		return []Phase{PhaseInProgress}
	case PhaseGameOver:
		return nil // terminal
	}
	return nil
}

// CanTransitionTo reports whether next is a legal successor of p.
func (p Phase) CanTransitionTo(next Phase) bool {
	for _, s := range p.successors() {
		if s == next {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the phase as its wire name.
func (p Phase) MarshalJSON() ([]byte, error) {
	name, ok := phaseNames[p]
	if !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a phase from its wire name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// Group is a player's assigned ball group in 8-ball.
type Group string

const (
	GroupUnassigned Group = "unassigned"
	GroupSolids     Group = "solids"
	GroupStripes    Group = "stripes"
)

// ballGroup returns the group a numbered ball belongs to. The cue ball and
// the 8-ball belong to neither group.
func ballGroup(n int) Group {
	switch {
	case n >= 1 && n <= 7:
		return GroupSolids
	case n >= 9 && n <= 15:
		return GroupStripes
	}
	return ""
}

// Ball is a single ball on the table. Number 0 is the cue ball.
type Ball struct {
	Number   int  `json:"number"`
	Pocketed bool `json:"is_pocketed"`
}

// FoulType classifies a foul event.
type FoulType string

const (
	FoulScratch           FoulType = "scratch"
	FoulNoContact         FoulType = "no_contact"
	FoulWrongFirstContact FoulType = "wrong_first_contact"
	FoulNoCushion         FoulType = "no_cushion"
	FoulBreak             FoulType = "break_foul"
)

// FoulEvent records a single foul observed during a shot.
type FoulEvent struct {
	PlayerID string   `json:"player_id,omitempty"`
	Type     FoulType `json:"type"`
	Message  string   `json:"message,omitempty"`
}

// WinCondition identifies how a game was won.
type WinCondition string

const (
	WinNormal          WinCondition = "normal"
	WinOpponentFoul    WinCondition = "opponent_foul"
	WinPointsTarget    WinCondition = "points_target"
	WinFramesTarget    WinCondition = "frames_target"
	WinOpponentForfeit WinCondition = "opponent_forfeit"
	WinSpecialRule     WinCondition = "special_rule"
)

// Snapshot is the complete observable state of a game at one instant. It is
// the unit passed between the orchestration layer and the engine; the engine
// mutates game state only by producing a new accepted Snapshot.
type Snapshot struct {
	Phase           Phase            `json:"phase"`
	Players         []string         `json:"players"`
	CurrentPlayerID string           `json:"current_player_id"`
	Balls           []Ball           `json:"balls"`
	Groups          map[string]Group `json:"groups,omitempty"`
	IsOpenTable     bool             `json:"is_open_table"`
	IsBreakShot     bool             `json:"is_break_shot"`
	BallInHand      bool             `json:"ball_in_hand"`
	Fouls           []FoulEvent      `json:"fouls"`
	Scores          map[string]Score `json:"scores,omitempty"`
	WinnerID        string           `json:"winner_id,omitempty"`
	WinCondition    WinCondition     `json:"win_condition,omitempty"`
	WinDetails      string           `json:"win_details,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Players = append([]string(nil), s.Players...)
	c.Balls = append([]Ball(nil), s.Balls...)
	c.Fouls = append([]FoulEvent(nil), s.Fouls...)
	if s.Groups != nil {
		c.Groups = make(map[string]Group, len(s.Groups))
		for k, v := range s.Groups {
			c.Groups[k] = v
		}
	}
	if s.Scores != nil {
		c.Scores = make(map[string]Score, len(s.Scores))
		for k, v := range s.Scores {
			c.Scores[k] = v
		}
	}
	return &c
}

// BallPocketed reports whether the numbered ball is off the table.
func (s *Snapshot) BallPocketed(n int) bool {
	for _, b := range s.Balls {
		if b.Number == n {
			return b.Pocketed
		}
	}
	return false
}

// PocketedSet returns the set of pocketed ball numbers.
func (s *Snapshot) PocketedSet() map[int]bool {
	set := make(map[int]bool)
	for _, b := range s.Balls {
		if b.Pocketed {
			set[b.Number] = true
		}
	}
	return set
}

// Opponent returns the other player's id. With more than two players it
// returns the first player that is not playerID.
func (s *Snapshot) Opponent(playerID string) string {
	for _, p := range s.Players {
		if p != playerID {
			return p
		}
	}
	return ""
}

// HasPlayer reports whether playerID is one of the game's players.
func (s *Snapshot) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// RemainingGroupBalls returns the numbers of the group's balls still on the
// table, sorted. The 8-ball is never part of a group.
func (s *Snapshot) RemainingGroupBalls(group Group) []int {
	var remaining []int
	for _, b := range s.Balls {
		if !b.Pocketed && ballGroup(b.Number) == group {
			remaining = append(remaining, b.Number)
		}
	}
	sort.Ints(remaining)
	return remaining
}

// LowestActiveBall returns the lowest-numbered object ball still on the
// table, or 0 if none remain.
func (s *Snapshot) LowestActiveBall() int {
	lowest := 0
	for _, b := range s.Balls {
		if b.Number == 0 || b.Pocketed {
			continue
		}
		if lowest == 0 || b.Number < lowest {
			lowest = b.Number
		}
	}
	return lowest
}
