package rules

import (
	"sort"
	"time"
)

// ScoringMode selects how a match target is interpreted.
type ScoringMode string

const (
	ModePoints ScoringMode = "points"  // first to N points
	ModeFrames ScoringMode = "frames"  // best of N frames
	ModeRaceTo ScoringMode = "race_to" // first to N frames
)

// Score holds the running statistics for one player in one game. All fields
// only grow except ConsecutiveFouls and CurrentRun, which reset on a legal
// shot and on a foul respectively.
type Score struct {
	Points           int     `json:"points"`
	Fouls            int     `json:"fouls"`
	Scratches        int     `json:"scratches"`
	Innings          int     `json:"innings"`
	ConsecutiveFouls int     `json:"consecutive_fouls"`
	FramesWon        int     `json:"frames_won"`
	TotalShots       int     `json:"total_shots"`
	SuccessfulShots  int     `json:"successful_shots"`
	CurrentRun       int     `json:"current_run"`
	LongestRun       int     `json:"longest_run"`
	SafetiesPlayed   int     `json:"safeties_played"`
	BreaksWon        int     `json:"breaks_won"`
	AvgShotTime      float64 `json:"avg_shot_time"`
	BallsPocketed    []int   `json:"balls_pocketed"`
}

// FrameStats accumulates statistics for one frame of a race.
type FrameStats struct {
	Number        int              `json:"number"`
	WinnerID      string           `json:"winner_id,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	EndedAt       time.Time        `json:"ended_at,omitempty"`
	Duration      float64          `json:"duration"`
	Innings       int              `json:"innings"`
	Shots         int              `json:"shots"`
	Points        map[string]int   `json:"points"`
	Fouls         map[string]int   `json:"fouls"`
	BallsPocketed map[string][]int `json:"balls_pocketed"`
}

// Ledger keeps the authoritative running statistics for one game instance.
// It has no knowledge of legality rules; callers tell it what happened and
// it counts. Unknown player ids are lazily initialized to a zero Score, so
// every operation is total.
type Ledger struct {
	variant      Variant
	scores       map[string]*Score
	frames       []FrameStats
	currentFrame *FrameStats
	lastShotAt   time.Time
	now          func() time.Time
}

// NewLedger creates an empty ledger for the given variant.
func NewLedger(variant Variant) *Ledger {
	return &Ledger{
		variant: variant,
		scores:  make(map[string]*Score),
		now:     time.Now,
	}
}

func (l *Ledger) score(playerID string) *Score {
	s, ok := l.scores[playerID]
	if !ok {
		s = &Score{}
		l.scores[playerID] = s
	}
	return s
}

// RecordPocket credits a pocketed ball to the player. Point value depends on
// the variant: the 9-ball money ball is worth 2, everything else 1.
func (l *Ledger) RecordPocket(playerID string, ball int) {
	s := l.score(playerID)
	points := l.variant.PointsFor(ball)
	s.Points += points
	s.BallsPocketed = append(s.BallsPocketed, ball)

	if f := l.currentFrame; f != nil {
		f.Points[playerID] += points
		f.BallsPocketed[playerID] = append(f.BallsPocketed[playerID], ball)
	}
}

// RecordFoul charges a foul to the player and returns true when the foul
// grants ball-in-hand to the opponent (a scratch). ConsecutiveFouls for all
// other players is untouched.
func (l *Ledger) RecordFoul(playerID string, foulType FoulType) bool {
	s := l.score(playerID)
	s.Fouls++
	s.ConsecutiveFouls++
	s.CurrentRun = 0

	if foulType == FoulScratch {
		s.Scratches++
	}

	if f := l.currentFrame; f != nil {
		f.Fouls[playerID]++
	}

	return foulType == FoulScratch
}

// RecordLegalShot registers a legal (non-foul) shot: resets the player's
// consecutive-foul streak, extends their current run and updates shot timing.
func (l *Ledger) RecordLegalShot(playerID string) {
	s := l.score(playerID)
	s.ConsecutiveFouls = 0

	now := l.now()
	if !l.lastShotAt.IsZero() {
		shotTime := now.Sub(l.lastShotAt).Seconds()
		s.AvgShotTime = (s.AvgShotTime*float64(s.TotalShots) + shotTime) / float64(s.TotalShots+1)
	}
	l.lastShotAt = now

	s.TotalShots++
	s.SuccessfulShots++
	s.CurrentRun++
	if s.CurrentRun > s.LongestRun {
		s.LongestRun = s.CurrentRun
	}

	if f := l.currentFrame; f != nil {
		f.Shots++
	}
}

// RecordSafety registers an intentional defensive shot.
func (l *Ledger) RecordSafety(playerID string) {
	l.score(playerID).SafetiesPlayed++
}

// RecordBreak registers a break shot and whether it was won (pocketed a ball
// without fouling).
func (l *Ledger) RecordBreak(playerID string, won bool) {
	if won {
		l.score(playerID).BreaksWon++
	}
}

// AdvanceInning increments the inning count for the player whose turn ended.
func (l *Ledger) AdvanceInning(playerID string) {
	l.score(playerID).Innings++
	if f := l.currentFrame; f != nil {
		f.Innings++
	}
}

// StartFrame begins a new frame, ending the previous one if still open.
func (l *Ledger) StartFrame(number int) {
	if l.currentFrame != nil {
		l.EndFrame("")
	}
	l.currentFrame = &FrameStats{
		Number:        number,
		StartedAt:     l.now(),
		Points:        make(map[string]int),
		Fouls:         make(map[string]int),
		BallsPocketed: make(map[string][]int),
	}
	l.lastShotAt = l.now()
}

// EndFrame closes the current frame and credits the winner, if any.
func (l *Ledger) EndFrame(winnerID string) {
	f := l.currentFrame
	if f == nil {
		return
	}
	f.EndedAt = l.now()
	f.Duration = f.EndedAt.Sub(f.StartedAt).Seconds()
	f.WinnerID = winnerID
	if winnerID != "" {
		l.score(winnerID).FramesWon++
	}
	l.frames = append(l.frames, *f)
	l.currentFrame = nil
}

// TargetReached returns the first player whose score satisfies the target
// under the given mode, or false when no player has. Players are scanned in
// sorted id order for determinism; in practice the check fires on the
// triggering update so at most one player can qualify.
func (l *Ledger) TargetReached(target int, mode ScoringMode) (string, bool) {
	if target <= 0 {
		return "", false
	}
	ids := make([]string, 0, len(l.scores))
	for id := range l.scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s := l.scores[id]
		switch mode {
		case ModePoints:
			if s.Points >= target {
				return id, true
			}
		case ModeFrames:
			if s.FramesWon >= (target+1)/2 {
				return id, true
			}
		case ModeRaceTo:
			if s.FramesWon >= target {
				return id, true
			}
		}
	}
	return "", false
}

// PlayerScore returns a copy of the player's score. Unknown players read as
// a zero Score without being added to the ledger.
func (l *Ledger) PlayerScore(playerID string) Score {
	s, ok := l.scores[playerID]
	if !ok {
		return Score{}
	}
	out := *s
	out.BallsPocketed = append([]int(nil), s.BallsPocketed...)
	return out
}

// Scores returns a copy of every player's score, keyed by player id.
func (l *Ledger) Scores() map[string]Score {
	out := make(map[string]Score, len(l.scores))
	for id := range l.scores {
		out[id] = l.PlayerScore(id)
	}
	return out
}

// Frames returns the completed frames in order.
func (l *Ledger) Frames() []FrameStats {
	return append([]FrameStats(nil), l.frames...)
}

// Summary is a compact projection of the game's statistics for consumers.
type Summary struct {
	Variant     Variant                  `json:"variant"`
	TotalFrames int                      `json:"total_frames"`
	Duration    float64                  `json:"duration"`
	Players     map[string]PlayerSummary `json:"players"`
}

// PlayerSummary is the per-player slice of a Summary.
type PlayerSummary struct {
	Points      int     `json:"points"`
	FramesWon   int     `json:"frames_won"`
	SuccessRate float64 `json:"success_rate"`
	AvgShotTime float64 `json:"avg_shot_time"`
	LongestRun  int     `json:"longest_run"`
	Fouls       int     `json:"fouls"`
	Safeties    int     `json:"safeties"`
	BreaksWon   int     `json:"breaks_won"`
}

// Summarize builds a summary of the game so far.
func (l *Ledger) Summarize() Summary {
	sum := Summary{
		Variant:     l.variant,
		TotalFrames: len(l.frames),
		Players:     make(map[string]PlayerSummary, len(l.scores)),
	}
	for _, f := range l.frames {
		sum.Duration += f.Duration
	}
	for id, s := range l.scores {
		rate := 0.0
		if s.TotalShots > 0 {
			rate = float64(s.SuccessfulShots) / float64(s.TotalShots)
		}
		sum.Players[id] = PlayerSummary{
			Points:      s.Points,
			FramesWon:   s.FramesWon,
			SuccessRate: rate,
			AvgShotTime: s.AvgShotTime,
			LongestRun:  s.LongestRun,
			Fouls:       s.Fouls,
			Safeties:    s.SafetiesPlayed,
			BreaksWon:   s.BreaksWon,
		}
	}
	return sum
}
