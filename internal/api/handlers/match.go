package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cueroom/backend/internal/config"
	"github.com/cueroom/backend/internal/match"
	"github.com/cueroom/backend/internal/rules"
)

// CreateMatch creates a new match and returns its join token.
func CreateMatch(mgr *match.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Variant     string              `json:"variant" binding:"required"`
			Players     []string            `json:"players" binding:"required"`
			ScoringMode string              `json:"scoring_mode,omitempty"`
			TargetScore int                 `json:"target_score,omitempty"`
			Rules       *rules.SpecialRules `json:"rules,omitempty"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request. Variant and players required.",
			})
			return
		}

		gameCfg := rules.GameConfig{
			Variant:     rules.Variant(req.Variant),
			ScoringMode: rules.ScoringMode(req.ScoringMode),
			TargetScore: req.TargetScore,
			Rules:       rules.DefaultSpecialRules(),
		}
		if gameCfg.ScoringMode == "" {
			gameCfg.ScoringMode = rules.ScoringMode(cfg.DefaultScoringMode)
		}
		if gameCfg.TargetScore == 0 {
			gameCfg.TargetScore = cfg.DefaultTargetScore
		}
		if req.Rules != nil {
			gameCfg.Rules = *req.Rules
		} else {
			gameCfg.Rules.ThreeConsecutiveFouls = cfg.ThreeFoulRule
			gameCfg.Rules.BallInHandOnFoul = cfg.BallInHandOnFoul
			gameCfg.Rules.EightOnBreak = cfg.EightOnBreak
			gameCfg.Rules.NineOnBreak = cfg.NineOnBreak
		}

		mt, err := mgr.CreateMatch(gameCfg, req.Players)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		log.Printf("[MATCH] Created match %s (variant=%s players=%d)", mt.ID, req.Variant, len(req.Players))

		c.JSON(http.StatusCreated, gin.H{
			"match_id": mt.ID,
			"token":    mt.Token,
			"variant":  mt.Config.Variant,
			"snapshot": mt.Game().Snapshot(),
		})
	}
}

// GetMatchState returns the current snapshot and score summary for a match.
func GetMatchState(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mt, err := mgr.GetMatchByToken(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"match_id": mt.ID,
			"variant":  mt.Config.Variant,
			"snapshot": mt.Game().Snapshot(),
			"summary":  mt.Game().Summary(),
		})
	}
}

// ApplyTransition validates a proposed snapshot against the current state.
// Rejections come back with 200 and accepted=false so clients can show the
// reason; only malformed requests and unknown matches are HTTP errors.
func ApplyTransition(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var proposed rules.Snapshot
		if err := c.ShouldBindJSON(&proposed); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snapshot data"})
			return
		}

		accepted, message, snap, err := mgr.ApplyTransition(c.Param("token"), &proposed)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"accepted": accepted,
			"message":  message,
			"snapshot": snap,
		})
	}
}

// GetLegalShots returns the shots available to the current player.
func GetLegalShots(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		shots, err := mgr.LegalShots(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"shots": shots})
	}
}

// GetPlayerScore returns one player's score counters.
func GetPlayerScore(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		score, err := mgr.Score(c.Param("token"), c.Param("player"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"player_id": c.Param("player"),
			"score":     score,
		})
	}
}

// GetMatchHistory returns recently completed matches with their final
// per-player stats. Requires a database; without one the history is empty.
func GetMatchHistory(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		matches, err := mgr.MatchHistory(limit)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Match history unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"matches": matches})
	}
}

// GetMatchStats returns the persisted stats rows for a completed match.
func GetMatchStats(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := mgr.MatchStats(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Match stats unavailable"})
			return
		}
		if len(stats) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}

// ForfeitMatch concedes the match on behalf of the requesting player.
func ForfeitMatch(mgr *match.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerID string `json:"player_id" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Player id required."})
			return
		}

		result, err := mgr.Forfeit(c.Param("token"), req.PlayerID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		log.Printf("[MATCH] Player %s forfeited match %s", req.PlayerID, c.Param("token"))

		c.JSON(http.StatusOK, gin.H{
			"winner_id": result.WinnerID,
			"condition": result.Condition,
			"details":   result.Details,
		})
	}
}
