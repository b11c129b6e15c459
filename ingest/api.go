package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/blogscraper/articles"
	"github.com/pevans/blogscraper/content"
	"github.com/pevans/blogscraper/discovery"
	"github.com/pevans/blogscraper/scraper"
)

// ConfigResolver overlays runtime settings on a base scrape configuration.
type ConfigResolver interface {
	Resolve(ctx context.Context, base scraper.Config) (scraper.Config, error)
}

// APIServer serves the batch scrape and article content routes.
type APIServer struct {
	service   *Service
	resolver  ConfigResolver
	validator *articles.Validator
	logger    *slog.Logger
}

// NewAPIServer creates a new ingest API server. resolver may be nil, in
// which case the service's configuration is used as is.
func NewAPIServer(service *Service, resolver ConfigResolver, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		service:   service,
		resolver:  resolver,
		validator: articles.NewValidator(),
		logger:    logger,
	}
}

// SetupRouter configures a Gin router with the ingest routes under /api.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	s.RegisterRoutes(router.Group("/api"))
	return router
}

// RegisterRoutes mounts the ingest routes on group.
func (s *APIServer) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/scrape-and-save", s.HandleScrapeAndSave)
	group.POST("/scrape-and-save", s.HandleScrapeAndSave)
	group.GET("/article-content", s.HandleArticleContent)
}

// ScrapeQuery represents the query of /api/scrape-and-save.
type ScrapeQuery struct {
	Count int `form:"count" json:"count" validate:"omitempty,min=1,max=100"`
}

// ContentQuery represents the query of GET /api/article-content.
type ContentQuery struct {
	URL string `form:"url" json:"url" validate:"required,http_url"`
}

// ScrapeResponse represents the response of a successful batch scrape.
type ScrapeResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	RunID         string             `json:"run_id"`
	Stats         Stats              `json:"stats"`
	TotalArticles int                `json:"total_articles"`
	Articles      []articles.Article `json:"articles"`
}

// ContentResponse represents the response of GET /api/article-content.
type ContentResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	Content   string `json:"content"`
	Available bool   `json:"available"`
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

// handleError maps errors to HTTP responses.
func (s *APIServer) handleError(c *gin.Context, err error) {
	var verr *articles.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  verr.Errors,
		})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", err.Error()))
	}
}

// resolveConfig returns the configuration for an API-triggered run.
func (s *APIServer) resolveConfig(ctx context.Context) (scraper.Config, error) {
	cfg := s.service.Config()
	if s.resolver == nil {
		return cfg, nil
	}
	return s.resolver.Resolve(ctx, cfg)
}

// HandleScrapeAndSave handles GET and POST /api/scrape-and-save.
func (s *APIServer) HandleScrapeAndSave(c *gin.Context) {
	var query ScrapeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}
	if err := s.validator.Validate(query); err != nil {
		s.handleError(c, err)
		return
	}

	ctx := c.Request.Context()
	cfg, err := s.resolveConfig(ctx)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if query.Count > 0 {
		cfg.TargetCount = query.Count
	}

	result, err := s.service.RunWith(ctx, cfg)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ScrapeResponse{
		Success:       true,
		Message:       "Articles saved successfully with full content",
		RunID:         result.RunID.String(),
		Stats:         result.Stats,
		TotalArticles: len(result.Articles),
		Articles:      result.Articles,
	})
}

// HandleArticleContent handles GET /api/article-content.
func (s *APIServer) HandleArticleContent(c *gin.Context) {
	var query ContentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}
	if err := s.validator.Validate(query); err != nil {
		s.handleError(c, err)
		return
	}

	ctx := c.Request.Context()
	cfg, err := s.resolveConfig(ctx)
	if err != nil {
		s.handleError(c, err)
		return
	}

	fetcher := discovery.NewFetcher(cfg.RequestTimeout, cfg.UserAgent)
	text := discovery.NewScraper(fetcher, s.logger).ArticleContent(ctx, query.URL)

	c.JSON(http.StatusOK, ContentResponse{
		Success:   true,
		URL:       query.URL,
		Content:   text,
		Available: !content.IsSentinel(text),
	})
}
