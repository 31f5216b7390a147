package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"cinefetch/internal/query"
	"cinefetch/pkg/models"
)

var (
	searchLive bool
	searchPage int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search movies by title",
	Long: `Search movies by title. With --live every line typed on stdin is sent as the
current search text over a websocket; results arrive once typing pauses.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchLive, "live", false, "Interactive debounced search over websocket")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchLive {
		return runLiveSearch(cmd.OutOrStdout(), os.Stdin)
	}

	q := strings.Join(args, " ")
	ctx, cancel := newContext()
	defer cancel()

	endpoint, err := endpointURL(apiFlag, "/search", url.Values{"q": {q}, "page": {strconv.Itoa(searchPage)}})
	if err != nil {
		return err
	}
	client := newHTTPClient()
	page, err := load(ctx, func(ctx context.Context) (*models.MoviePage, error) {
		return getData[*models.MoviePage](ctx, client, endpoint)
	})
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), page)
	}
	printMovies(cmd.OutOrStdout(), fmt.Sprintf("Results for %q", q), page.Results)
	return nil
}

type liveFrame struct {
	Type string `json:"type"`
	query.SearchSnapshot
}

func runLiveSearch(out io.Writer, in io.Reader) error {
	wsURL, err := websocketURL(apiFlag, "/ws/search")
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Fprintf(out, "connected to %s; type to search, Ctrl-D to quit\n", wsURL)

	readErr := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var f liveFrame
			if err := json.Unmarshal(msg, &f); err != nil || f.Type != "search" {
				continue
			}
			printLiveFrame(out, f)
		}
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := conn.WriteMessage(websocket.TextMessage, scanner.Bytes()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-readErr
	return nil
}

func printLiveFrame(out io.Writer, f liveFrame) {
	if isJSON() {
		_ = printJSON(out, f)
		return
	}
	switch f.State {
	case query.SearchSettled:
		if f.Error != "" {
			fmt.Fprintf(out, "! %s\n", f.Error)
			return
		}
		printMovies(out, fmt.Sprintf("Suggestions for %q", f.Query), f.Suggestions)
	case query.SearchIdle:
		fmt.Fprintln(out, "(cleared)")
	}
}
