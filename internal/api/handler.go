package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ea-stress-lab/internal/storage"
)

const defaultListLimit = 50

// Handler holds the store dependencies for the read endpoints.
type Handler struct {
	runs         storage.ValidationRunStore
	trades       storage.TradeStore
	leaderboard  storage.LeaderboardStore
	equityCurves storage.EquityCurveStore
}

// NewHandler creates a handler over the given stores.
func NewHandler(
	runs storage.ValidationRunStore,
	trades storage.TradeStore,
	leaderboard storage.LeaderboardStore,
	equityCurves storage.EquityCurveStore,
) *Handler {
	return &Handler{
		runs:         runs,
		trades:       trades,
		leaderboard:  leaderboard,
		equityCurves: equityCurves,
	}
}

// ListRuns returns the most recent runs, newest first. ?limit=N caps the
// count, defaulting to 50.
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(runs), "data": runs})
}

// GetRun returns one run by ID.
func (h *Handler) GetRun(c *gin.Context) {
	runID := c.Param("id")

	run, err := h.runs.GetByID(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found", "run_id": runID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

// GetRunsByEA returns all runs for one EA, newest first.
func (h *Handler) GetRunsByEA(c *gin.Context) {
	name := c.Param("name")

	runs, err := h.runs.GetByEA(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(runs), "data": runs})
}

// GetTrades returns a run's reconstructed trades in close order.
func (h *Handler) GetTrades(c *gin.Context) {
	runID := c.Param("id")

	trades, err := h.trades.GetByRunID(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no trades for run", "run_id": runID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(trades), "data": trades})
}

// GetEquityCurve returns a run's equity curve ordered by trade index.
func (h *Handler) GetEquityCurve(c *gin.Context) {
	if h.equityCurves == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "equity curve storage not configured"})
		return
	}

	runID := c.Param("id")

	points, err := h.equityCurves.GetByRunID(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(points) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no equity curve for run", "run_id": runID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(points), "data": points})
}

// GetLeaderboard returns all entries ordered by score descending.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	entries, err := h.leaderboard.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(entries), "data": entries})
}

// GetLeaderboardEntry returns one EA's leaderboard entry.
func (h *Handler) GetLeaderboardEntry(c *gin.Context) {
	name := c.Param("name")

	entry, err := h.leaderboard.GetByEA(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ea not on leaderboard", "ea_name": name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}
