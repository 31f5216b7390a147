package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"cinefetch/internal/catalog"
	"cinefetch/internal/fetch"
	"cinefetch/internal/health"
	"cinefetch/internal/movies"
	"cinefetch/internal/query"
	"cinefetch/internal/search"
	"cinefetch/internal/tmdb"
	"cinefetch/pkg/database"
	"cinefetch/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "config file (defaults to ./cinefetch.yaml when present)")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logOut, closeLog := utils.SetupLogging(cfg.Log)
	defer closeLog()

	primary := tmdb.New(tmdb.Config{
		APIKey:        cfg.TMDB.APIKey,
		BaseURL:       cfg.TMDB.BaseURL,
		Language:      cfg.TMDB.Language,
		Timeout:       cfg.TMDB.Timeout(),
		RatePerSecond: cfg.TMDB.RatePerSecond,
		Burst:         cfg.TMDB.Burst,
		Retries:       cfg.TMDB.Retries,
	}, &http.Client{})
	if cfg.TMDB.APIKey == "" {
		log.Println("[tmdb] warning: no api key set; every request will fall back to the catalog")
	}

	store, db, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	svc := fetch.NewService(primary, catalog.NewClient(store), fetch.Options{
		StaticFallback: cfg.Fallback.Static,
	})

	gin.DefaultWriter = logOut
	gin.DefaultErrorWriter = logOut
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := search.NewHub()
	router.GET("/ws/search", search.WSHandler(hub, svc, query.SearchOptions{
		Debounce:    cfg.Search.Debounce(),
		Suggestions: cfg.Search.Suggestions,
	}))

	mode := storeMode(cfg.Store)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": mode})
	})

	var ping func(context.Context) error
	if db != nil {
		ping = db.PingContext
	}
	checker := health.NewChecker(ping)

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		if err := checker.Check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"ws_sessions": stats.Sessions,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":            "ready",
			"store":             mode,
			"ws_sessions":       stats.Sessions,
			"ws_sessions_total": stats.SessionsTotal,
		})
	})

	movies.NewHandler(svc).RegisterRoutes(router.Group(""))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go checker.Watch(watchCtx, 15*time.Second)

	var grpcSrv *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, checker.Server())

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("gRPC health server listening on %s", cfg.GRPC.Addr)
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopWatch()
	checker.Shutdown()
	hub.CloseAll()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}

	wg.Wait()
	log.Println("server stopped")
}

// openStore builds the catalog store from config. It returns a nil store
// when none is configured; db is set only for the sqlite flavour.
func openStore(cfg utils.StoreConfig) (catalog.Store, *sql.DB, error) {
	if !cfg.Configured() {
		log.Printf("[catalog] warning: %s_STORE_URL/%s_STORE_KEY not set; catalog fallback disabled",
			utils.EnvPrefix, utils.EnvPrefix)
		return nil, nil, nil
	}

	if cfg.IsREST() {
		return catalog.NewRESTStore(cfg.URL, cfg.Key, &http.Client{Timeout: 10 * time.Second}), nil, nil
	}

	dbCfg := database.ConfigFromURL(cfg.URL)
	if err := database.EnsureDataDir(dbCfg); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Printf("[catalog] using sqlite catalog at %s", dbCfg.Path)
	return catalog.NewSQLStore(db), db, nil
}

func storeMode(cfg utils.StoreConfig) string {
	switch {
	case !cfg.Configured():
		return "disabled"
	case cfg.IsREST():
		return "rest"
	default:
		return "sqlite"
	}
}
