package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

var (
	apiFlag     string
	formatFlag  string
	retriesFlag int
)

var rootCmd = &cobra.Command{
	Use:   "cinefetch",
	Short: "Browse movies through the cinefetch API",
	Long: `cinefetch talks to a running api-server. Lists, details and search come from
the content service when it is reachable and from the catalog otherwise.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", envOr("CINEFETCH_API", defaultBaseURL), "API base URL")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "Output format (json, human)")
	rootCmd.PersistentFlags().IntVar(&retriesFlag, "retries", 0, "Refetch a screen this many times while the server reports a retryable failure")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
