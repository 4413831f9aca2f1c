package rules

import (
	"testing"
	"time"
)

func TestRecordPocketPoints(t *testing.T) {
	nine := NewLedger(NineBall)
	nine.RecordPocket("p1", 3)
	nine.RecordPocket("p1", 9)
	if got := nine.PlayerScore("p1").Points; got != 3 {
		t.Errorf("9-ball points: got %d, want 3 (1 for the 3-ball, 2 for the 9)", got)
	}

	eight := NewLedger(EightBall)
	eight.RecordPocket("p1", 8)
	eight.RecordPocket("p1", 15)
	if got := eight.PlayerScore("p1").Points; got != 2 {
		t.Errorf("8-ball points: got %d, want 2 (1 per ball)", got)
	}
}

func TestRecordPocketTracksBalls(t *testing.T) {
	l := NewLedger(EightBall)
	l.RecordPocket("p1", 1)
	l.RecordPocket("p1", 5)

	s := l.PlayerScore("p1")
	if len(s.BallsPocketed) != 2 || s.BallsPocketed[0] != 1 || s.BallsPocketed[1] != 5 {
		t.Errorf("pocketed list: got %v, want [1 5]", s.BallsPocketed)
	}
}

func TestRecordFoulCounters(t *testing.T) {
	l := NewLedger(EightBall)

	ballInHand := l.RecordFoul("p1", FoulNoContact)
	if ballInHand {
		t.Error("no-contact foul should not grant ball-in-hand")
	}

	ballInHand = l.RecordFoul("p1", FoulScratch)
	if !ballInHand {
		t.Error("scratch should grant ball-in-hand")
	}

	s := l.PlayerScore("p1")
	if s.Fouls != 2 || s.ConsecutiveFouls != 2 || s.Scratches != 1 {
		t.Errorf("foul counters: fouls=%d consecutive=%d scratches=%d, want 2/2/1",
			s.Fouls, s.ConsecutiveFouls, s.Scratches)
	}

	// A foul by p1 must not disturb p2's streak.
	l.RecordFoul("p2", FoulNoCushion)
	l.RecordFoul("p1", FoulBreak)
	if got := l.PlayerScore("p2").ConsecutiveFouls; got != 1 {
		t.Errorf("p2 consecutive fouls after p1 fouled again: got %d, want 1", got)
	}
}

func TestLegalShotResetsConsecutiveFouls(t *testing.T) {
	l := NewLedger(NineBall)
	l.RecordFoul("p1", FoulScratch)
	l.RecordFoul("p1", FoulScratch)
	l.RecordLegalShot("p1")

	s := l.PlayerScore("p1")
	if s.ConsecutiveFouls != 0 {
		t.Errorf("consecutive fouls after legal shot: got %d, want 0", s.ConsecutiveFouls)
	}
	if s.Fouls != 2 {
		t.Errorf("total fouls should survive the reset: got %d, want 2", s.Fouls)
	}
}

func TestRunTracking(t *testing.T) {
	l := NewLedger(EightBall)
	l.RecordLegalShot("p1")
	l.RecordLegalShot("p1")
	l.RecordLegalShot("p1")
	l.RecordFoul("p1", FoulNoContact)
	l.RecordLegalShot("p1")

	s := l.PlayerScore("p1")
	if s.LongestRun != 3 {
		t.Errorf("longest run: got %d, want 3", s.LongestRun)
	}
	if s.CurrentRun != 1 {
		t.Errorf("current run after foul reset: got %d, want 1", s.CurrentRun)
	}
}

func TestShotTiming(t *testing.T) {
	l := NewLedger(EightBall)
	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	l.StartFrame(1)
	clock = clock.Add(4 * time.Second)
	l.RecordLegalShot("p1")
	clock = clock.Add(8 * time.Second)
	l.RecordLegalShot("p1")

	s := l.PlayerScore("p1")
	if s.AvgShotTime != 6 {
		t.Errorf("avg shot time: got %.1f, want 6.0", s.AvgShotTime)
	}
}

func TestAdvanceInning(t *testing.T) {
	l := NewLedger(EightBall)
	l.AdvanceInning("p1")
	l.AdvanceInning("p1")
	if got := l.PlayerScore("p1").Innings; got != 2 {
		t.Errorf("innings: got %d, want 2", got)
	}
}

func TestUnknownPlayerIsZero(t *testing.T) {
	l := NewLedger(EightBall)
	s := l.PlayerScore("ghost")
	if s.Points != 0 || s.Fouls != 0 || s.Innings != 0 {
		t.Errorf("unknown player should read as a zero score, got %+v", s)
	}
	if len(l.Scores()) != 0 {
		t.Error("reading an unknown player must not create a ledger entry")
	}
}

func TestTargetReachedModes(t *testing.T) {
	l := NewLedger(NineBall)
	l.score("p1").Points = 50
	l.score("p2").FramesWon = 3

	if id, ok := l.TargetReached(50, ModePoints); !ok || id != "p1" {
		t.Errorf("points target: got (%q, %v), want (p1, true)", id, ok)
	}
	// Best of 5: 3 frames wins it.
	if id, ok := l.TargetReached(5, ModeFrames); !ok || id != "p2" {
		t.Errorf("frames target: got (%q, %v), want (p2, true)", id, ok)
	}
	if id, ok := l.TargetReached(3, ModeRaceTo); !ok || id != "p2" {
		t.Errorf("race-to target: got (%q, %v), want (p2, true)", id, ok)
	}
	if _, ok := l.TargetReached(100, ModePoints); ok {
		t.Error("target of 100 points should not be reached at 50")
	}
	if _, ok := l.TargetReached(0, ModePoints); ok {
		t.Error("zero target disables target wins")
	}
}

func TestFrameLifecycle(t *testing.T) {
	l := NewLedger(EightBall)
	l.StartFrame(1)
	l.RecordPocket("p1", 1)
	l.RecordFoul("p2", FoulScratch)
	l.EndFrame("p1")

	frames := l.Frames()
	if len(frames) != 1 {
		t.Fatalf("frames recorded: got %d, want 1", len(frames))
	}
	f := frames[0]
	if f.WinnerID != "p1" || f.Points["p1"] != 1 || f.Fouls["p2"] != 1 {
		t.Errorf("frame stats: %+v", f)
	}
	if got := l.PlayerScore("p1").FramesWon; got != 1 {
		t.Errorf("frames won: got %d, want 1", got)
	}
}

func TestSummarize(t *testing.T) {
	l := NewLedger(NineBall)
	l.StartFrame(1)
	l.RecordLegalShot("p1")
	l.RecordLegalShot("p1")
	l.RecordFoul("p1", FoulNoContact)
	l.RecordSafety("p1")
	l.EndFrame("p1")

	sum := l.Summarize()
	if sum.TotalFrames != 1 {
		t.Errorf("total frames: got %d, want 1", sum.TotalFrames)
	}
	ps := sum.Players["p1"]
	if ps.SuccessRate != 1.0 {
		t.Errorf("success rate counts only recorded shots: got %.2f, want 1.00", ps.SuccessRate)
	}
	if ps.Safeties != 1 || ps.FramesWon != 1 {
		t.Errorf("player summary: %+v", ps)
	}
}
