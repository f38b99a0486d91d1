package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/cexll/trajcomments/internal/api"
	"github.com/cexll/trajcomments/internal/commentstore"
	"github.com/cexll/trajcomments/internal/config"
	"github.com/cexll/trajcomments/internal/identity"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

var (
	loadDotEnv         = godotenv.Load
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting trajectory comments server...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("Data dir: %s", cfg.DataDir)

	// Comment store over the submissions tree
	store := commentstore.NewStore(cfg.DataDir)

	// Identity resolver: session override first, git config fallback
	resolver := identity.NewResolver(&identity.RealCommandRunner{})

	// Setup router
	r := mux.NewRouter()

	handler := api.NewHandler(store, resolver)
	handler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Root endpoint with info
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"service": "trajectory-comments",
			"status":  "running",
			"dataDir": cfg.DataDir,
		})
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Comments endpoint: http://localhost%s/comments/{submission}/{trajectory}/{simulation}", addr)
	log.Printf("Username endpoint: http://localhost%s/username", addr)
	log.Printf("Health check: http://localhost%s/health", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
