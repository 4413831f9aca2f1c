package rules

import "sort"

// Rejection messages. These are user-facing; the orchestration layer relays
// them verbatim.
const (
	msgInvalidStructure  = "Invalid state structure"
	msgIllegalTransition = "Illegal state transition"
	msgValidTransition   = "Valid transition"
)

// LegalShot describes one ball the current player may legally strike.
type LegalShot struct {
	Ball                 int    `json:"ball"`
	Category             string `json:"type"`
	CalledPocketRequired bool   `json:"called_pocket_required"`
}

// Validator is the sole mutation point for a game: it validates proposed
// snapshot transitions, applies their consequences to the ledger and asks
// the win detector for a verdict.
type Validator struct {
	variant  Variant
	ledger   *Ledger
	detector *Detector
}

// NewValidator wires a validator to its ledger and win detector.
func NewValidator(variant Variant, ledger *Ledger, detector *Detector) *Validator {
	return &Validator{variant: variant, ledger: ledger, detector: detector}
}

// ValidateTransition checks a proposed snapshot against the current one and,
// if the transition is legal, applies its consequences and returns the
// accepted result. Rejections never touch the ledger: every check runs
// before the first mutation, so a rejected or abandoned call leaves no
// partial update behind.
func (v *Validator) ValidateTransition(current, proposed *Snapshot) (bool, string, *Snapshot) {
	if !v.validStructure(proposed) {
		return false, msgInvalidStructure, current
	}

	if !current.Phase.CanTransitionTo(proposed.Phase) {
		return false, msgIllegalTransition, current
	}

	// An open table can close but never re-open within a game.
	if !current.IsOpenTable && proposed.IsOpenTable {
		return false, msgIllegalTransition, current
	}

	result := proposed.Clone()
	shooter := current.CurrentPlayerID

	// Turn passed: the shooter's inning is over.
	if proposed.CurrentPlayerID != shooter {
		v.ledger.AdvanceInning(shooter)
	}

	var newFoul *FoulEvent
	if len(proposed.Fouls) > len(current.Fouls) {
		newFoul = &proposed.Fouls[len(proposed.Fouls)-1]
	}

	if newFoul != nil {
		offender := newFoul.PlayerID
		if offender == "" {
			offender = shooter
		}
		scratch := v.ledger.RecordFoul(offender, newFoul.Type)
		if scratch && v.detector.Rules().BallInHandOnFoul {
			result.BallInHand = true
		}
	}

	newPocketed := diffPocketed(current, proposed)
	for _, ball := range newPocketed {
		v.ledger.RecordPocket(shooter, ball)
	}

	// A shot with no foul entry is legal, whether it pocketed a ball or
	// simply completed.
	shotCompleted := current.Phase == PhaseShotInProgress && proposed.Phase != PhaseShotInProgress
	if newFoul == nil && (len(newPocketed) > 0 || shotCompleted) {
		v.ledger.RecordLegalShot(shooter)
		if current.IsBreakShot {
			v.ledger.RecordBreak(shooter, len(newPocketed) > 0)
		}
	}

	result.Scores = v.ledger.Scores()

	// The win check runs in the shooter's context: the shot being resolved
	// belongs to current's player, and it was a break shot if current says
	// so, regardless of how the proposal rotated the turn.
	checkSnap := *result
	checkSnap.CurrentPlayerID = shooter
	checkSnap.IsBreakShot = current.IsBreakShot

	win := v.detector.Check(&checkSnap, v.ledger)
	if win.IsWinner {
		result.Phase = PhaseGameOver
		result.WinnerID = win.WinnerID
		result.WinCondition = win.Condition
		result.WinDetails = win.Details
		v.ledger.EndFrame(win.WinnerID)
		return true, "Game over - " + win.Details, result
	}

	return true, msgValidTransition, result
}

// validStructure checks that a proposed snapshot carries every required
// field for the variant.
func (v *Validator) validStructure(s *Snapshot) bool {
	if s == nil {
		return false
	}
	if len(s.Players) < 2 {
		return false
	}
	if !s.HasPlayer(s.CurrentPlayerID) {
		return false
	}
	if len(s.Balls) != v.variant.BallCount() {
		return false
	}
	if v.variant == EightBall && s.Groups == nil {
		return false
	}
	return true
}

// diffPocketed returns the balls newly marked pocketed in proposed, sorted.
func diffPocketed(current, proposed *Snapshot) []int {
	before := current.PocketedSet()
	var newly []int
	for _, b := range proposed.Balls {
		if b.Pocketed && !before[b.Number] {
			newly = append(newly, b.Number)
		}
	}
	// Proposals come from the wire and may order balls arbitrarily; sort to
	// keep pocket credit deterministic.
	sort.Ints(newly)
	return newly
}

// LegalShots enumerates the balls the current player may legally strike.
// Outside InProgress there are no legal shots.
func (v *Validator) LegalShots(snap *Snapshot) []LegalShot {
	if snap.Phase != PhaseInProgress {
		return nil
	}

	switch v.variant {
	case EightBall:
		return v.eightBallLegalShots(snap)
	case NineBall:
		return v.nineBallLegalShots(snap)
	}
	return nil
}

func (v *Validator) eightBallLegalShots(snap *Snapshot) []LegalShot {
	var shots []LegalShot

	// Open table: anything but the 8-ball.
	if snap.IsOpenTable {
		for _, b := range snap.Balls {
			if b.Pocketed || b.Number == 0 || b.Number == 8 {
				continue
			}
			shots = append(shots, LegalShot{
				Ball:                 b.Number,
				Category:             "open_table",
				CalledPocketRequired: true,
			})
		}
		return shots
	}

	group := snap.Groups[snap.CurrentPlayerID]
	remaining := snap.RemainingGroupBalls(group)

	if len(remaining) == 0 {
		// Group cleared: only the 8-ball is legal.
		if !snap.BallPocketed(8) {
			shots = append(shots, LegalShot{
				Ball:                 8,
				Category:             "eight_ball",
				CalledPocketRequired: true,
			})
		}
		return shots
	}

	for _, ball := range remaining {
		shots = append(shots, LegalShot{
			Ball:                 ball,
			Category:             string(group),
			CalledPocketRequired: true,
		})
	}
	return shots
}

func (v *Validator) nineBallLegalShots(snap *Snapshot) []LegalShot {
	lowest := snap.LowestActiveBall()
	if lowest == 0 {
		return nil
	}
	// Contact-only rule: the lowest ball must be struck first but any ball
	// may drop, so no called pocket.
	return []LegalShot{{
		Ball:                 lowest,
		Category:             "nine_ball",
		CalledPocketRequired: false,
	}}
}
