package articles

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pevans/blogscraper/scraper"
)

// APIServer serves the article CRUD routes.
type APIServer struct {
	store     *Store
	validator *Validator
	logger    *slog.Logger
}

// NewAPIServer creates a new article API server.
func NewAPIServer(store *Store, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		store:     store,
		validator: NewValidator(),
		logger:    logger,
	}
}

// SetupRouter configures a Gin router with the article routes under /api.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	s.RegisterRoutes(router.Group("/api"))
	return router
}

// RegisterRoutes mounts the article routes on group.
func (s *APIServer) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/articles", s.HandleListArticles)
	group.GET("/articles/:id", s.HandleGetArticle)
	group.PUT("/updateArticle/:id", s.HandleUpdateArticle)
	group.DELETE("/deleteArticle/:id", s.HandleDeleteArticle)
	group.POST("/delete-multiple-articles", s.HandleDeleteMultipleArticles)
}

// ListArticlesQuery represents the query of GET /api/articles.
type ListArticlesQuery struct {
	PerPage  int    `form:"per_page" json:"per_page" validate:"min=1,max=100"`
	Page     int    `form:"page" json:"page" validate:"min=1"`
	Category string `form:"category" json:"category"`
}

// CategoryInput is one category of an update request.
type CategoryInput struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

// ReferenceInput is one reference article of an update request.
type ReferenceInput struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
}

// UpdateArticleRequest represents the request for PUT
// /api/updateArticle/{id}. Absent fields are left unchanged.
type UpdateArticleRequest struct {
	Title             *string           `json:"title" validate:"omitnil,required,max=255"`
	URL               *string           `json:"url" validate:"omitnil,url"`
	Excerpt           *string           `json:"excerpt"`
	Image             *string           `json:"image" validate:"omitnil,url"`
	ImageAlt          *string           `json:"image_alt"`
	AuthorName        *string           `json:"author_name"`
	AuthorURL         *string           `json:"author_url" validate:"omitnil,url"`
	Date              *string           `json:"date"`
	Categories        *[]CategoryInput  `json:"categories" validate:"omitnil,dive"`
	FullContent       *string           `json:"full_content"`
	IsOptimized       *bool             `json:"is_optimized"`
	ReferenceArticles *[]ReferenceInput `json:"reference_articles" validate:"omitnil,dive"`
}

// DeleteMultipleRequest represents the request for POST
// /api/delete-multiple-articles.
type DeleteMultipleRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// DeletedArticle echoes the identity of a deleted article.
type DeletedArticle struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
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

// validationResponse creates the 422 payload for a ValidationError.
func validationResponse(verr *ValidationError) gin.H {
	return gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  verr.Errors,
	}
}

// handleError maps domain errors to HTTP responses.
func (s *APIServer) handleError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, validationResponse(verr))
	case errors.Is(err, ErrArticleNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Article not found"))
	case errors.Is(err, ErrDuplicateURL):
		c.JSON(http.StatusConflict, errorResponse("conflict", err.Error()))
	default:
		s.logger.Error("article request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// bindJSON decodes the request body. Fields of the wrong JSON type become
// validation errors; malformed bodies are reported as bad requests.
func (s *APIServer) bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verr := &ValidationError{}
		verr.Add(typeErr.Field, fmt.Sprintf("The %s field must be a %s.", typeErr.Field, jsonKind(typeErr.Type.Kind().String())))
		c.JSON(http.StatusUnprocessableEntity, validationResponse(verr))
		return false
	}

	c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
	return false
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "slice", "array":
		return "list"
	case "struct", "map":
		return "object"
	default:
		return "number"
	}
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Article not found"))
		return 0, false
	}
	return id, true
}

// HandleListArticles handles GET /api/articles.
func (s *APIServer) HandleListArticles(c *gin.Context) {
	query := ListArticlesQuery{PerPage: DefaultPerPage, Page: 1}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}
	if err := s.validator.Validate(query); err != nil {
		s.handleError(c, err)
		return
	}

	page, err := s.store.ListPaged(c.Request.Context(), ListFilter{
		PerPage:  query.PerPage,
		Page:     query.Page,
		Category: query.Category,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"articles": page,
	})
}

// HandleGetArticle handles GET /api/articles/{id}.
func (s *APIServer) HandleGetArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	article, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"article": article,
	})
}

// HandleUpdateArticle handles PUT /api/updateArticle/{id}.
func (s *APIServer) HandleUpdateArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := s.store.Get(ctx, id); err != nil {
		s.handleError(c, err)
		return
	}

	var req UpdateArticleRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.handleError(c, err)
		return
	}

	// url must stay unique across articles
	if req.URL != nil {
		existing, err := s.store.FindByURL(ctx, *req.URL)
		if err != nil {
			s.handleError(c, err)
			return
		}
		if existing != nil && existing.ID != id {
			verr := &ValidationError{}
			verr.Add("url", "The url has already been taken.")
			s.handleError(c, verr)
			return
		}
	}

	article, err := s.store.Update(ctx, id, req.toUpdate())
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Article updated successfully",
		"article": article,
	})
}

func (r UpdateArticleRequest) toUpdate() ArticleUpdate {
	update := ArticleUpdate{
		Title:       r.Title,
		URL:         r.URL,
		Excerpt:     r.Excerpt,
		Image:       r.Image,
		ImageAlt:    r.ImageAlt,
		AuthorName:  r.AuthorName,
		AuthorURL:   r.AuthorURL,
		Date:        r.Date,
		FullContent: r.FullContent,
		IsOptimized: r.IsOptimized,
	}

	if r.Categories != nil {
		categories := make([]scraper.Category, len(*r.Categories))
		for i, cat := range *r.Categories {
			categories[i] = scraper.Category{Name: cat.Name, URL: cat.URL}
		}
		update.Categories = &categories
	}

	if r.ReferenceArticles != nil {
		refs := make([]ReferenceArticle, len(*r.ReferenceArticles))
		for i, ref := range *r.ReferenceArticles {
			refs[i] = ReferenceArticle{Title: ref.Title, URL: ref.URL}
		}
		update.ReferenceArticles = &refs
	}

	return update
}

// HandleDeleteArticle handles DELETE /api/deleteArticle/{id}.
func (s *APIServer) HandleDeleteArticle(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var deleted DeletedArticle
	err := s.store.WithTx(ctx, func(repo Repository) error {
		article, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		deleted = DeletedArticle{ID: article.ID, Title: article.Title, URL: article.URL}

		if _, err := repo.DeleteByID(ctx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Article deleted successfully",
		"deleted_article": deleted,
	})
}

// HandleDeleteMultipleArticles handles POST /api/delete-multiple-articles.
// The request is rejected unless every id exists.
func (s *APIServer) HandleDeleteMultipleArticles(c *gin.Context) {
	var req DeleteMultipleRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.validator.Validate(req); err != nil {
		s.handleError(c, err)
		return
	}
	ctx := c.Request.Context()

	var deletedCount int64
	err := s.store.WithTx(ctx, func(repo Repository) error {
		existing, err := repo.ExistingIDs(ctx, req.IDs)
		if err != nil {
			return err
		}

		verr := &ValidationError{}
		for i, id := range req.IDs {
			if !existing[id] {
				field := fmt.Sprintf("ids.%d", i)
				verr.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
			}
		}
		if verr.HasErrors() {
			return verr
		}

		deletedCount, err = repo.DeleteByIDs(ctx, req.IDs)
		return err
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("Successfully deleted %d article(s)", deletedCount),
		"deleted_count": deletedCount,
	})
}
