package config

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/blogscraper/articles"
	"github.com/pevans/blogscraper/scraper"
)

// APIServer serves the runtime settings routes.
type APIServer struct {
	store     *SettingsStore
	base      scraper.Config
	validator *articles.Validator
	logger    *slog.Logger
}

// NewAPIServer creates a new settings API server. base is the file and
// environment configuration that stored settings are applied to.
func NewAPIServer(store *SettingsStore, base scraper.Config, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		store:     store,
		base:      base,
		validator: articles.NewValidator(),
		logger:    logger,
	}
}

// SetupRouter configures a Gin router with the settings routes under /api.
func (c *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	c.RegisterRoutes(router.Group("/api"))
	return router
}

// RegisterRoutes mounts the settings routes on group.
func (c *APIServer) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/config", c.HandleGetConfig)
	group.PUT("/config", c.HandleUpdateConfig)
}

// UpdateConfigRequest represents the request for PUT /api/config.
type UpdateConfigRequest struct {
	BaseURL        *string `json:"base_url" validate:"omitnil,http_url"`
	TargetCount    *int    `json:"target_count" validate:"omitnil,min=1,max=100"`
	RequestTimeout *string `json:"request_timeout"`
	UserAgent      *string `json:"user_agent" validate:"omitnil,required,max=255"`
}

// ConfigResponse represents the response for /api/config: the stored
// settings and the configuration an API-triggered run would use.
type ConfigResponse struct {
	Success   bool            `json:"success"`
	Settings  Settings        `json:"settings"`
	Effective EffectiveConfig `json:"effective"`
}

// EffectiveConfig is the JSON form of a scrape configuration.
type EffectiveConfig struct {
	BaseURL        string `json:"base_url"`
	TargetCount    int    `json:"target_count"`
	RequestTimeout string `json:"request_timeout"`
	UserAgent      string `json:"user_agent"`
}

// NewEffectiveConfig converts a scrape configuration for display.
func NewEffectiveConfig(cfg scraper.Config) EffectiveConfig {
	return EffectiveConfig{
		BaseURL:        cfg.BaseURL,
		TargetCount:    cfg.TargetCount,
		RequestTimeout: cfg.RequestTimeout.String(),
		UserAgent:      cfg.UserAgent,
	}
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"success": false,
		"message": message,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// respond writes the current settings.
func (c *APIServer) respond(ctx *gin.Context) {
	settings, err := c.store.GetSettings(ctx.Request.Context())
	if err != nil {
		c.logger.Error("failed to read settings", "error", err)
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve configuration"))
		return
	}

	effective, err := settings.Apply(c.base)
	if err != nil {
		c.logger.Error("stored settings are invalid", "error", err)
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve configuration"))
		return
	}

	ctx.JSON(http.StatusOK, ConfigResponse{
		Success:   true,
		Settings:  *settings,
		Effective: NewEffectiveConfig(effective),
	})
}

// HandleGetConfig handles GET /api/config.
func (c *APIServer) HandleGetConfig(ctx *gin.Context) {
	c.respond(ctx)
}

// HandleUpdateConfig handles PUT /api/config.
func (c *APIServer) HandleUpdateConfig(ctx *gin.Context) {
	var req UpdateConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}

	verr := &articles.ValidationError{}
	if err := c.validator.Validate(req); err != nil {
		if !errors.As(err, &verr) {
			ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", err.Error()))
			return
		}
	}

	update := SettingsUpdate{
		BaseURL:     req.BaseURL,
		TargetCount: req.TargetCount,
		UserAgent:   req.UserAgent,
	}
	if req.RequestTimeout != nil {
		timeout, ok := parseRequestTimeout(*req.RequestTimeout)
		if !ok {
			verr.Add("request_timeout", "The request_timeout field must be a positive duration (e.g., 30s, 1m).")
		}
		update.RequestTimeout = &timeout
	}

	if verr.HasErrors() {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  verr.Errors,
		})
		return
	}

	if err := c.store.UpdateSettings(ctx.Request.Context(), update); err != nil {
		c.logger.Error("failed to update settings", "error", err)
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to update configuration"))
		return
	}

	c.respond(ctx)
}

// parseRequestTimeout parses a request timeout and reports whether it is a
// positive duration.
func parseRequestTimeout(timeout string) (time.Duration, bool) {
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
