package match

import (
	"sync"
	"testing"

	"github.com/cueroom/backend/internal/rules"
)

// recordingHub captures broadcasts so tests can assert on them.
type recordingHub struct {
	mu       sync.Mutex
	messages []interface{}
}

func (h *recordingHub) BroadcastToMatch(matchID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func newTestManager(hub Broadcaster) *Manager {
	// nil db and redis: persistence and caching are skipped.
	return NewManager(nil, nil, nil, hub)
}

func createNineBall(t *testing.T, m *Manager) *Match {
	t.Helper()
	mt, err := m.CreateMatch(rules.GameConfig{
		Variant: rules.NineBall,
		Rules:   rules.DefaultSpecialRules(),
	}, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	return mt
}

func TestCreateAndLookupMatch(t *testing.T) {
	m := newTestManager(nil)
	mt := createNineBall(t, m)

	if mt.ID == "" || mt.Token == "" {
		t.Fatalf("match missing id or token: %+v", mt)
	}

	byID, err := m.GetMatch(mt.ID)
	if err != nil || byID != mt {
		t.Errorf("GetMatch: %v", err)
	}
	byToken, err := m.GetMatchByToken(mt.Token)
	if err != nil || byToken != mt {
		t.Errorf("GetMatchByToken: %v", err)
	}
	if m.ActiveMatchCount() != 1 {
		t.Errorf("active count: got %d, want 1", m.ActiveMatchCount())
	}
}

func TestCreateMatchRejectsBadConfig(t *testing.T) {
	m := newTestManager(nil)
	if _, err := m.CreateMatch(rules.GameConfig{Variant: "carom"}, []string{"p1", "p2"}); err == nil {
		t.Error("unsupported variant accepted")
	}
}

func TestApplyTransitionBroadcasts(t *testing.T) {
	hub := &recordingHub{}
	m := newTestManager(hub)
	mt := createNineBall(t, m)

	proposed := mt.Game().Snapshot()
	proposed.Phase = rules.PhaseInProgress

	accepted, msg, result, err := m.ApplyTransition(mt.Token, proposed)
	if err != nil || !accepted {
		t.Fatalf("transition: accepted=%v msg=%q err=%v", accepted, msg, err)
	}
	if result.Phase != rules.PhaseInProgress {
		t.Errorf("result phase: %v", result.Phase)
	}
	if hub.count() != 1 {
		t.Errorf("broadcasts: got %d, want 1", hub.count())
	}
}

func TestApplyTransitionRejectionDoesNotBroadcast(t *testing.T) {
	hub := &recordingHub{}
	m := newTestManager(hub)
	mt := createNineBall(t, m)

	proposed := mt.Game().Snapshot()
	proposed.Phase = rules.PhaseGameOver // Ready cannot jump to GameOver

	accepted, msg, _, err := m.ApplyTransition(mt.Token, proposed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted {
		t.Fatal("illegal transition accepted")
	}
	if msg != "Illegal state transition" {
		t.Errorf("message: %q", msg)
	}
	if hub.count() != 0 {
		t.Errorf("rejections must not broadcast, got %d messages", hub.count())
	}
}

func TestApplyTransitionUnknownToken(t *testing.T) {
	m := newTestManager(nil)
	if _, _, _, err := m.ApplyTransition("nope", &rules.Snapshot{}); err == nil {
		t.Error("unknown token must error")
	}
}

func TestForfeitThroughManager(t *testing.T) {
	hub := &recordingHub{}
	m := newTestManager(hub)
	mt := createNineBall(t, m)

	win, err := m.Forfeit(mt.Token, "p2")
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if win.WinnerID != "p1" || win.Condition != rules.WinOpponentForfeit {
		t.Errorf("forfeit verdict: %+v", win)
	}
	if hub.count() != 1 {
		t.Errorf("forfeit should broadcast the final snapshot, got %d", hub.count())
	}

	snap := mt.Game().Snapshot()
	if snap.Phase != rules.PhaseGameOver {
		t.Errorf("phase after forfeit: %v", snap.Phase)
	}
}

func TestLegalShotsAndScore(t *testing.T) {
	m := newTestManager(nil)
	mt := createNineBall(t, m)

	// Ready: no legal shots yet.
	shots, err := m.LegalShots(mt.Token)
	if err != nil {
		t.Fatalf("LegalShots: %v", err)
	}
	if len(shots) != 0 {
		t.Errorf("shots before the game starts: %v", shots)
	}

	proposed := mt.Game().Snapshot()
	proposed.Phase = rules.PhaseInProgress
	if accepted, msg, _, _ := m.ApplyTransition(mt.Token, proposed); !accepted {
		t.Fatalf("start rejected: %s", msg)
	}

	shots, _ = m.LegalShots(mt.Token)
	if len(shots) != 1 || shots[0].Ball != 1 {
		t.Errorf("legal shots at the start of 9-ball: %v", shots)
	}

	score, err := m.Score(mt.Token, "p1")
	if err != nil || score.Points != 0 {
		t.Errorf("score: %+v err=%v", score, err)
	}
}

func TestEndMatch(t *testing.T) {
	m := newTestManager(nil)
	mt := createNineBall(t, m)

	m.EndMatch(mt.ID)
	if _, err := m.GetMatch(mt.ID); err == nil {
		t.Error("ended match still resolvable by id")
	}
	if _, err := m.GetMatchByToken(mt.Token); err == nil {
		t.Error("ended match still resolvable by token")
	}
}
