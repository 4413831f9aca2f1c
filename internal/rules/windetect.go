package rules

import (
	"fmt"
	"sort"
	"time"
)

// SpecialRule names an optional rule that can be toggled per game.
type SpecialRule string

const (
	RuleThreeConsecutiveFouls SpecialRule = "three_consecutive_fouls"
	RuleBallInHandOnFoul      SpecialRule = "ball_in_hand_foul"
	RuleEightOnBreak          SpecialRule = "eight_on_break"
	RuleNineOnBreak           SpecialRule = "nine_on_break"
)

// SpecialRules is the fixed set of optional rules. A struct of named
// booleans rather than a string-keyed map, so a misspelled rule name is a
// compile error (or a rejected SetSpecialRule call), never a silent no-op.
type SpecialRules struct {
	ThreeConsecutiveFouls bool `json:"three_consecutive_fouls"`
	BallInHandOnFoul      bool `json:"ball_in_hand_foul"`
	EightOnBreak          bool `json:"eight_on_break"`
	NineOnBreak           bool `json:"nine_on_break"`
}

// DefaultSpecialRules returns the special rules with everything enabled.
func DefaultSpecialRules() SpecialRules {
	return SpecialRules{
		ThreeConsecutiveFouls: true,
		BallInHandOnFoul:      true,
		EightOnBreak:          true,
		NineOnBreak:           true,
	}
}

// WinResult is the verdict of a win-condition check. Produced fresh on every
// check; it is only frozen into a snapshot once a winner is found.
type WinResult struct {
	IsWinner  bool         `json:"is_winner"`
	WinnerID  string       `json:"winner_id,omitempty"`
	Condition WinCondition `json:"condition,omitempty"`
	Details   string       `json:"details,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func noWinner() WinResult {
	return WinResult{IsWinner: false, Timestamp: time.Now()}
}

func winner(id string, cond WinCondition, details string) WinResult {
	return WinResult{
		IsWinner:  true,
		WinnerID:  id,
		Condition: cond,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// Detector evaluates win conditions against a snapshot and a ledger. It is
// stateless aside from the per-game special-rule toggles and scoring target.
type Detector struct {
	variant Variant
	mode    ScoringMode
	target  int
	rules   SpecialRules
}

// NewDetector creates a win detector. A target of 0 disables target-score
// wins.
func NewDetector(variant Variant, mode ScoringMode, target int, rules SpecialRules) *Detector {
	return &Detector{variant: variant, mode: mode, target: target, rules: rules}
}

// SetSpecialRule toggles a special rule. Unknown rule names are a usage
// error.
func (d *Detector) SetSpecialRule(rule SpecialRule, enabled bool) error {
	switch rule {
	case RuleThreeConsecutiveFouls:
		d.rules.ThreeConsecutiveFouls = enabled
	case RuleBallInHandOnFoul:
		d.rules.BallInHandOnFoul = enabled
	case RuleEightOnBreak:
		d.rules.EightOnBreak = enabled
	case RuleNineOnBreak:
		d.rules.NineOnBreak = enabled
	default:
		return fmt.Errorf("unknown special rule %q", rule)
	}
	return nil
}

// Rules returns the current special-rule toggles.
func (d *Detector) Rules() SpecialRules {
	return d.rules
}

// Check evaluates all win conditions in fixed priority order and returns the
// first verdict that matches. The ordering is deliberate: a terminal ball
// pocketed on the break could simultaneously satisfy a scoring target, and
// the target check wins that race.
func (d *Detector) Check(snap *Snapshot, ledger *Ledger) WinResult {
	if result := d.checkScoringTarget(ledger); result.IsWinner {
		return result
	}

	switch d.variant {
	case EightBall:
		if result := d.checkEightBall(snap); result.IsWinner {
			return result
		}
	case NineBall:
		if result := d.checkNineBall(snap); result.IsWinner {
			return result
		}
	}

	if result := d.checkConsecutiveFouls(snap, ledger); result.IsWinner {
		return result
	}

	return noWinner()
}

func (d *Detector) checkScoringTarget(ledger *Ledger) WinResult {
	if d.target <= 0 {
		return noWinner()
	}
	id, ok := ledger.TargetReached(d.target, d.mode)
	if !ok {
		return noWinner()
	}
	s := ledger.PlayerScore(id)
	switch d.mode {
	case ModeFrames, ModeRaceTo:
		return winner(id, WinFramesTarget, fmt.Sprintf("Won %d frames", s.FramesWon))
	default:
		return winner(id, WinPointsTarget, fmt.Sprintf("Reached %d points", s.Points))
	}
}

func (d *Detector) checkEightBall(snap *Snapshot) WinResult {
	if !snap.BallPocketed(8) {
		return noWinner()
	}

	shooter := snap.CurrentPlayerID

	if snap.IsBreakShot && d.rules.EightOnBreak {
		return winner(shooter, WinSpecialRule, "8-ball pocketed on break")
	}

	group, ok := snap.Groups[shooter]
	if !ok || group == GroupUnassigned {
		// 8-ball down with no group determined yet; leave the verdict to
		// the orchestration layer's re-rack handling.
		return noWinner()
	}

	if len(snap.RemainingGroupBalls(group)) == 0 {
		return winner(shooter, WinNormal, "8-ball legally pocketed after clearing group")
	}

	return winner(snap.Opponent(shooter), WinOpponentFoul,
		"Opponent pocketed 8-ball before clearing their group")
}

func (d *Detector) checkNineBall(snap *Snapshot) WinResult {
	if !snap.BallPocketed(9) {
		return noWinner()
	}

	shooter := snap.CurrentPlayerID

	if snap.IsBreakShot && d.rules.NineOnBreak {
		return winner(shooter, WinSpecialRule, "9-ball pocketed on break")
	}

	return winner(shooter, WinNormal, "9-ball legally pocketed")
}

func (d *Detector) checkConsecutiveFouls(snap *Snapshot, ledger *Ledger) WinResult {
	if !d.rules.ThreeConsecutiveFouls {
		return noWinner()
	}
	players := append([]string(nil), snap.Players...)
	sort.Strings(players)
	for _, id := range players {
		if ledger.PlayerScore(id).ConsecutiveFouls >= 3 {
			return winner(snap.Opponent(id), WinSpecialRule,
				"Opponent committed three consecutive fouls")
		}
	}
	return noWinner()
}
