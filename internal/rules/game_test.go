package rules

import "testing"

func newTestGame(t *testing.T, variant Variant) *Game {
	t.Helper()
	g, err := NewGame(GameConfig{Variant: variant, Rules: DefaultSpecialRules()}, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func TestNewGameStartsReady(t *testing.T) {
	g := newTestGame(t, EightBall)
	snap := g.Snapshot()

	if snap.Phase != PhaseReady {
		t.Errorf("phase: got %v, want Ready", snap.Phase)
	}
	if !snap.IsOpenTable || !snap.IsBreakShot {
		t.Errorf("new 8-ball game should be an open table on the break: %+v", snap)
	}
	if len(snap.Balls) != 16 {
		t.Errorf("ball count: got %d, want 16", len(snap.Balls))
	}
	if snap.Groups["p1"] != GroupUnassigned || snap.Groups["p2"] != GroupUnassigned {
		t.Errorf("groups should start unassigned: %v", snap.Groups)
	}
}

func TestNewGameRejectsBadConfig(t *testing.T) {
	if _, err := NewGame(GameConfig{Variant: "snooker"}, []string{"p1", "p2"}); err == nil {
		t.Error("unsupported variant accepted")
	}
	if _, err := NewGame(GameConfig{Variant: NineBall}, []string{"p1"}); err == nil {
		t.Error("single-player game accepted")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	g := newTestGame(t, NineBall)
	snap := g.Snapshot()
	snap.Balls[9].Pocketed = true
	snap.CurrentPlayerID = "p2"

	fresh := g.Snapshot()
	if fresh.BallPocketed(9) || fresh.CurrentPlayerID != "p1" {
		t.Error("mutating a returned snapshot leaked into the game")
	}
}

func TestApplyFullNineBallGame(t *testing.T) {
	g := newTestGame(t, NineBall)

	// Ready -> InProgress.
	proposed := g.Snapshot()
	proposed.Phase = PhaseInProgress
	ok, msg, _ := g.Apply(proposed)
	if !ok {
		t.Fatalf("start rejected: %s", msg)
	}

	// Break shot sinks the 9: game over on the spot.
	proposed = g.Snapshot()
	proposed.Phase = PhaseShotInProgress
	pocket(proposed, 9)
	ok, msg, result := g.Apply(proposed)
	if !ok {
		t.Fatalf("break rejected: %s", msg)
	}
	if result.Phase != PhaseGameOver || result.WinnerID != "p1" || result.WinCondition != WinSpecialRule {
		t.Errorf("9-on-break through the facade: %+v", result)
	}
	if !g.Over() {
		t.Error("game should report over")
	}

	// Terminal finality via the facade.
	proposed = g.Snapshot()
	proposed.Phase = PhaseInProgress
	if ok, _, _ := g.Apply(proposed); ok {
		t.Error("transition accepted after game over")
	}
}

func TestScoreProjection(t *testing.T) {
	g := newTestGame(t, NineBall)

	proposed := g.Snapshot()
	proposed.Phase = PhaseInProgress
	g.Apply(proposed)

	proposed = g.Snapshot()
	proposed.Phase = PhaseShotInProgress
	pocket(proposed, 1)
	if ok, msg, _ := g.Apply(proposed); !ok {
		t.Fatalf("shot rejected: %s", msg)
	}

	if got := g.Score("p1").Points; got != 1 {
		t.Errorf("p1 points: got %d, want 1", got)
	}
	if got := g.Score("p2").Points; got != 0 {
		t.Errorf("p2 points: got %d, want 0", got)
	}
}

func TestForfeit(t *testing.T) {
	g := newTestGame(t, EightBall)

	win, err := g.Forfeit("p1")
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if win.WinnerID != "p2" || win.Condition != WinOpponentForfeit {
		t.Errorf("forfeit verdict: %+v", win)
	}

	snap := g.Snapshot()
	if snap.Phase != PhaseGameOver || snap.WinnerID != "p2" {
		t.Errorf("snapshot after forfeit: %+v", snap)
	}

	if _, err := g.Forfeit("p2"); err == nil {
		t.Error("forfeiting a finished game must fail")
	}
}

func TestForfeitUnknownPlayer(t *testing.T) {
	g := newTestGame(t, EightBall)
	if _, err := g.Forfeit("ghost"); err == nil {
		t.Error("unknown player forfeit must fail")
	}
}

func TestSetSpecialRuleOnGame(t *testing.T) {
	g := newTestGame(t, NineBall)
	if err := g.SetSpecialRule(RuleNineOnBreak, false); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := g.SetSpecialRule("no_such_rule", true); err == nil {
		t.Error("unknown rule accepted")
	}
}
