package models

import (
	"database/sql"
	"time"
)

// Match is the persisted record of a completed (or forfeited) match.
type Match struct {
	ID           string         `db:"id" json:"id"`
	Token        string         `db:"token" json:"token"`
	Variant      string         `db:"variant" json:"variant"`
	Status       string         `db:"status" json:"status"`
	ScoringMode  string         `db:"scoring_mode" json:"scoring_mode"`
	TargetScore  int            `db:"target_score" json:"target_score"`
	WinnerID     sql.NullString `db:"winner_id" json:"winner_id,omitempty"`
	WinCondition sql.NullString `db:"win_condition" json:"win_condition,omitempty"`
	WinDetails   sql.NullString `db:"win_details" json:"win_details,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	CompletedAt  sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
}

// MatchPlayerStats is one player's final ledger line for a match.
type MatchPlayerStats struct {
	MatchID       string `db:"match_id" json:"match_id"`
	PlayerID      string `db:"player_id" json:"player_id"`
	Points        int    `db:"points" json:"points"`
	Fouls         int    `db:"fouls" json:"fouls"`
	Scratches     int    `db:"scratches" json:"scratches"`
	Innings       int    `db:"innings" json:"innings"`
	FramesWon     int    `db:"frames_won" json:"frames_won"`
	LongestRun    int    `db:"longest_run" json:"longest_run"`
	BallsPocketed int    `db:"balls_pocketed" json:"balls_pocketed"`
}
