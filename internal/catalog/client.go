package catalog

import (
	"context"
	"log"

	"cinefetch/pkg/models"
)

// Client gives the fetch layer a catalog that cannot fail. When no store is
// wired every call returns the fallback without touching the network.
type Client struct {
	store Store
}

// NewClient wraps store. A nil store puts the client in fallback-only mode.
func NewClient(store Store) *Client {
	return &Client{store: store}
}

func (c *Client) Configured() bool {
	return c != nil && c.store != nil
}

func (c *Client) Movies(ctx context.Context, f Filter, fallback []models.CatalogMovie) []models.CatalogMovie {
	return run(ctx, c, "list movies", fallback, func(ctx context.Context) ([]models.CatalogMovie, error) {
		return c.store.ListMovies(ctx, f)
	})
}

// Movie returns nil when the store has no row for id and fallback when the
// lookup could not be made.
func (c *Client) Movie(ctx context.Context, id string, fallback *models.CatalogMovieDetail) *models.CatalogMovieDetail {
	return run(ctx, c, "get movie", fallback, func(ctx context.Context) (*models.CatalogMovieDetail, error) {
		return c.store.GetMovie(ctx, id)
	})
}

func (c *Client) Search(ctx context.Context, q string, limit int, fallback []models.CatalogMovie) []models.CatalogMovie {
	return run(ctx, c, "search movies", fallback, func(ctx context.Context) ([]models.CatalogMovie, error) {
		return c.store.SearchMovies(ctx, q, limit)
	})
}

func (c *Client) Categories(ctx context.Context, fallback []models.CatalogCategory) []models.CatalogCategory {
	return run(ctx, c, "list categories", fallback, func(ctx context.Context) ([]models.CatalogCategory, error) {
		return c.store.ListCategories(ctx)
	})
}

func (c *Client) ByCategory(ctx context.Context, categoryID string, limit int, fallback []models.CatalogMovie) []models.CatalogMovie {
	return run(ctx, c, "list by category", fallback, func(ctx context.Context) ([]models.CatalogMovie, error) {
		return c.store.ListByCategory(ctx, categoryID, limit)
	})
}

func run[T any](ctx context.Context, c *Client, op string, fallback T, fn func(context.Context) (T, error)) (out T) {
	if !c.Configured() {
		log.Printf("[catalog] warning: store not configured; %s uses fallback", op)
		return fallback
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[catalog] %s panicked: %v", op, r)
			out = fallback
		}
	}()

	res, err := fn(ctx)
	if err != nil {
		log.Printf("[catalog] %s failed: %v", op, err)
		return fallback
	}
	return res
}
