package jobs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	Runner *Runner
	Log    zerolog.Logger
}

func NewHandler(runner *Runner, log zerolog.Logger) *Handler {
	return &Handler{Runner: runner, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/runs", h.listRuns)   // GET /sync/runs
	rg.GET("/runs/:id", h.getRun) // GET /sync/runs/:id
	rg.POST("/run", h.trigger)    // POST /sync/run
}

func (h *Handler) listRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.Runner.Runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("list sync runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs, "running": h.Runner.Running()})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.Runner.Runs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("get sync run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) trigger(c *gin.Context) {
	run, err := h.Runner.Trigger(c.Request.Context())
	if errors.Is(err, ErrRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "sync already running"})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("trigger sync")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trigger failed"})
		return
	}
	c.JSON(http.StatusAccepted, run)
}
