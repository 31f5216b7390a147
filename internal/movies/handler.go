// Package movies serves the browsing screens over HTTP. Each request mounts
// a query hook, runs it to settlement and renders its state.
package movies

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cinefetch/internal/fetch"
	"cinefetch/internal/query"
	"cinefetch/pkg/models"
)

// Service is the orchestrator surface the screens need; *fetch.Service implements it.
type Service interface {
	Home(ctx context.Context) (*models.HomeData, error)
	List(ctx context.Context, kind fetch.ListKind, page int) (*models.MoviePage, error)
	Details(ctx context.Context, ref models.MovieRef) (*models.MovieDetails, error)
	Search(ctx context.Context, q string, page int) (*models.MoviePage, error)
	Genres(ctx context.Context) ([]models.Genre, error)
	ByGenre(ctx context.Context, genreID int64, page int) (*models.MoviePage, error)
}

type Handler struct {
	Svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/home", h.home)                       // GET /home
	rg.GET("/movies/:kind", h.list)               // GET /movies/trending?page=2
	rg.GET("/movie/:id", h.details)               // GET /movie/27205?source=secondary&source_id=...
	rg.GET("/search", h.search)                   // GET /search?q=inception
	rg.GET("/genres", h.genres)                   // GET /genres
	rg.GET("/genres/:id/movies", h.moviesByGenre) // GET /genres/28/movies
}

func (h *Handler) home(c *gin.Context) {
	q := query.New(func(ctx context.Context) (*models.HomeData, error) {
		return h.Svc.Home(ctx)
	})
	defer q.Close()
	render(c, q.Load(c.Request.Context()))
}

func (h *Handler) list(c *gin.Context) {
	kind, err := fetch.ParseListKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err)
		return
	}
	page := parsePage(c.Query("page"))

	q := query.New(func(ctx context.Context) (*models.MoviePage, error) {
		return h.Svc.List(ctx, kind, page)
	})
	defer q.Close()
	render(c, q.Load(c.Request.Context()))
}

func (h *Handler) details(c *gin.Context) {
	ref, err := parseRef(c.Param("id"), c.Query("source"), c.Query("source_id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	q := query.New(func(ctx context.Context) (*models.MovieDetails, error) {
		return h.Svc.Details(ctx, ref)
	})
	defer q.Close()
	render(c, q.Load(c.Request.Context()))
}

func (h *Handler) search(c *gin.Context) {
	text := c.Query("q")
	page := parsePage(c.Query("page"))

	q := query.New(func(ctx context.Context) (*models.MoviePage, error) {
		return h.Svc.Search(ctx, text, page)
	})
	defer q.Close()
	render(c, q.Load(c.Request.Context()))
}

func (h *Handler) genres(c *gin.Context) {
	q := query.New(func(ctx context.Context) ([]models.Genre, error) {
		return h.Svc.Genres(ctx)
	})
	defer q.Close()
	render(c, q.Load(c.Request.Context()))
}

func (h *Handler) moviesByGenre(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New("genre id must be a positive integer"))
		return
	}
	page := parsePage(c.Query("page"))

	q := query.New(func(ctx context.Context) (*models.MoviePage, error) {
		return h.Svc.ByGenre(ctx, id, page)
	})
	defer q.Close()
	render(c, q.Load(c.Request.Context()))
}

func render[T any](c *gin.Context, s query.State[T]) {
	if !s.Failed() {
		c.JSON(http.StatusOK, gin.H{"data": s.Data, "loading": s.Loading})
		return
	}

	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(s.Cause, fetch.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(s.Cause, fetch.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"error":     s.Error,
		"retryable": s.Retryable,
		"loading":   s.Loading,
	})
}

func badRequest(c *gin.Context, err error) {
	msg := strings.TrimPrefix(err.Error(), fetch.ErrInvalidInput.Error()+": ")
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request: " + msg,
		"retryable": false,
		"loading":   false,
	})
}

// parseRef accepts a numeric id, or a catalog id in place of it when the
// source is the catalog.
func parseRef(rawID, source, sourceID string) (models.MovieRef, error) {
	rawID = strings.TrimSpace(rawID)
	ref := models.MovieRef{
		Source:   models.Source(strings.ToLower(strings.TrimSpace(source))),
		SourceID: strings.TrimSpace(sourceID),
	}
	switch ref.Source {
	case "", models.SourcePrimary, models.SourceSecondary, models.SourceStatic:
	default:
		return ref, errors.New("unknown source " + strconv.Quote(source))
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err == nil && id > 0 {
		ref.ID = id
		return ref, nil
	}
	if ref.Source == models.SourceSecondary && rawID != "" {
		if ref.SourceID == "" {
			ref.SourceID = rawID
		}
		return ref, nil
	}
	return ref, errors.New("movie id must be a positive integer")
}

func parsePage(s string) int {
	n := parseInt(s, 1)
	if n < 1 {
		return 1
	}
	return n
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
