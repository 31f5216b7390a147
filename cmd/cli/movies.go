package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"cinefetch/internal/fetch"
	"cinefetch/internal/query"
	"cinefetch/pkg/models"
)

var (
	listPages    int
	showSource   string
	showSourceID string
	genrePage    int
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the featured movie and the four home lists",
	Args:  cobra.NoArgs,
	RunE:  runHome,
}

var listCmd = &cobra.Command{
	Use:   "list <trending|popular|top-rated|upcoming>",
	Short: "Page through one movie list",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show movie details with cast, trailer and similar titles",
	Long: `Show movie details. Catalog movies can be opened by their catalog id:

  cinefetch show 9b2f... --source secondary`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var genresCmd = &cobra.Command{
	Use:   "genres [genre-id]",
	Short: "List genres, or the movies of one genre",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenres,
}

func init() {
	listCmd.Flags().IntVar(&listPages, "pages", 1, "Number of pages to load")
	showCmd.Flags().StringVar(&showSource, "source", "", "Origin of the id (primary, secondary)")
	showCmd.Flags().StringVar(&showSourceID, "source-id", "", "Catalog id when the movie came from the catalog")
	genresCmd.Flags().IntVar(&genrePage, "page", 1, "Page of the genre listing")

	rootCmd.AddCommand(homeCmd, listCmd, showCmd, genresCmd)
}

func runHome(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	endpoint, err := endpointURL(apiFlag, "/home", nil)
	if err != nil {
		return err
	}
	client := newHTTPClient()
	home, err := load(ctx, func(ctx context.Context) (*models.HomeData, error) {
		return getData[*models.HomeData](ctx, client, endpoint)
	})
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), home)
	}
	printHome(cmd.OutOrStdout(), home)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	kind, err := fetch.ParseListKind(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	client := newHTTPClient()
	pager := query.NewPaged(func(ctx context.Context, page int) (*models.MoviePage, error) {
		endpoint, err := endpointURL(apiFlag, "/movies/"+string(kind), url.Values{"page": {strconv.Itoa(page)}})
		if err != nil {
			return nil, err
		}
		return getData[*models.MoviePage](ctx, client, endpoint)
	})
	defer pager.Close()

	state := pager.Load(ctx)
	for loaded := 1; !state.Failed() && loaded < listPages && pager.HasMore(); loaded++ {
		state = pager.LoadMore(ctx)
	}
	if state.Failed() {
		if state.Cause != nil {
			return state.Cause
		}
		return errors.New(state.Error)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), state.Data)
	}
	printMovies(cmd.OutOrStdout(), string(kind), state.Data)
	fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d\n", pager.Page(), pager.TotalPages())
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()

	params := url.Values{}
	if showSource != "" {
		params.Set("source", showSource)
	}
	if showSourceID != "" {
		params.Set("source_id", showSourceID)
	}
	endpoint, err := endpointURL(apiFlag, "/movie/"+url.PathEscape(args[0]), params)
	if err != nil {
		return err
	}
	client := newHTTPClient()
	details, err := load(ctx, func(ctx context.Context) (*models.MovieDetails, error) {
		return getData[*models.MovieDetails](ctx, client, endpoint)
	})
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), details)
	}
	printDetails(cmd.OutOrStdout(), details)
	return nil
}

func runGenres(cmd *cobra.Command, args []string) error {
	ctx, cancel := newContext()
	defer cancel()
	client := newHTTPClient()

	if len(args) == 0 {
		endpoint, err := endpointURL(apiFlag, "/genres", nil)
		if err != nil {
			return err
		}
		genres, err := load(ctx, func(ctx context.Context) ([]models.Genre, error) {
			return getData[[]models.Genre](ctx, client, endpoint)
		})
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), genres)
		}
		for _, g := range genres {
			fmt.Fprintf(cmd.OutOrStdout(), "%10d  %s\n", g.ID, g.Name)
		}
		return nil
	}

	endpoint, err := endpointURL(apiFlag, "/genres/"+url.PathEscape(args[0])+"/movies",
		url.Values{"page": {strconv.Itoa(genrePage)}})
	if err != nil {
		return err
	}
	page, err := load(ctx, func(ctx context.Context) (*models.MoviePage, error) {
		return getData[*models.MoviePage](ctx, client, endpoint)
	})
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), page)
	}
	printMovies(cmd.OutOrStdout(), "Genre "+args[0], page.Results)
	return nil
}
