package motor

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"motorhub/pkg/motorid"
)

type Handler struct {
	Repo *Repo
	Log  zerolog.Logger
}

func NewHandler(repo *Repo, log zerolog.Logger) *Handler {
	return &Handler{Repo: repo, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /motors
	rg.POST("/parse", h.parse)  // POST /motors/parse
	rg.GET("/:key", h.getByKey) // GET /motors/:key (key or slug)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Q:       c.Query("q"),
		MinHP:   parseFloat(c.Query("min_hp")),
		MaxHP:   parseFloat(c.Query("max_hp")),
		InStock: parseBool(c.Query("in_stock")),
		Limit:   parseInt(c.Query("limit"), 20),
		Offset:  parseInt(c.Query("offset"), 0),
	}

	if f := c.Query("family"); f != "" {
		family, ok := motorid.ParseMotorFamily(f)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown family"})
			return
		}
		q.MotorFamily = string(family)
	}
	if v := c.Query("efi"); v != "" {
		b := parseBool(v)
		q.EFI = &b
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		h.Log.Error().Err(err).Msg("count motors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		h.Log.Error().Err(err).Msg("list motors")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  clampLimit(q.Limit),
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByKey(c *gin.Context) {
	m, err := h.Repo.GetByKey(c.Request.Context(), c.Param("key"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Str("key", c.Param("key")).Msg("get motor")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type parseReq struct {
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// Identity is the full derived identity of one description. It is shared
// by the HTTP and gRPC surfaces.
type Identity struct {
	Description   string              `json:"description"`
	Normalized    string              `json:"normalized"`
	Parsed        motorid.ParsedModel `json:"parsed"`
	ModelKey      string              `json:"model_key"`
	Slug          string              `json:"slug"`
	MotorFamily   motorid.MotorFamily `json:"motor_family"`
	DisplayName   string              `json:"display_name"`
	LowConfidence bool                `json:"low_confidence"`
}

// Identify runs the whole identity pipeline over one description.
func Identify(description string, features ...string) Identity {
	normalized := motorid.Normalize(description)
	pm := motorid.Extract(normalized)
	key := motorid.KeyOf(description, pm)

	var hp float64
	if pm.Horsepower != nil {
		hp = *pm.Horsepower
	}

	return Identity{
		Description:   description,
		Normalized:    normalized,
		Parsed:        pm,
		ModelKey:      key,
		Slug:          motorid.Slug(key),
		MotorFamily:   motorid.ClassifyFamily(hp, description, features...),
		DisplayName:   motorid.FormatDisplay(normalized),
		LowConfidence: pm.LowConfidence(),
	}
}

func (h *Handler) parse(c *gin.Context) {
	var req parseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description required"})
		return
	}
	c.JSON(http.StatusOK, Identify(req.Description, req.Features...))
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
