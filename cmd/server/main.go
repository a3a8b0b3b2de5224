package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cadencelab/cadence/internal/api"
	"github.com/cadencelab/cadence/internal/config"
	"github.com/cadencelab/cadence/internal/db"
	"github.com/cadencelab/cadence/internal/metrics"
	"github.com/cadencelab/cadence/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	commit := os.Getenv("CADENCE_COMMIT")
	buildTime := os.Getenv("CADENCE_BUILD_TIME")

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	mux := http.NewServeMux()
	api.NewRouter(store).Register(mux)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Cadence API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Serve the participant dashboard when a static dir is configured.
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(metrics.Instrument(mux)))))

	log.Printf("Cadence server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks SQLite when a path is configured, otherwise the in-memory
// store (dev and test mode).
func openStore(cfg *config.Config) (api.Store, error) {
	if cfg.SQLitePath == "" {
		log.Printf("no sqlite_path configured, using in-memory store")
		return api.NewMemoryStore(), nil
	}
	conn, err := sql.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(conn, cfg.MigrationsDir); err != nil {
		return nil, err
	}
	return db.NewStore(conn)
}
