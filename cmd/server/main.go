package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mnemosyne-server/internal/cache"
	"mnemosyne-server/internal/config"
	"mnemosyne-server/internal/handler"
	"mnemosyne-server/internal/middleware"
	"mnemosyne-server/internal/repository"
	"mnemosyne-server/internal/service"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created snapshot database: %s", cfg.Database.Name)
	}

	snapshotStore := repository.NewCouchSnapshotStore(client, cfg.Database.Name)

	newRemote := func(token string) service.UserRemote {
		return repository.NewGitHubRepository(cfg.GitHub.APIURL, token)
	}
	newStorage := func(login string, remote repository.RemoteRepository) *service.StorageService {
		itemCache := cache.NewItemCache(snapshotStore, "items:"+login, cfg.Cache.ItemTTL)
		assetCache := cache.NewAssetCache(snapshotStore, "assets:"+login, cfg.Cache.AssetTTL)
		return service.NewStorageService(remote, itemCache, assetCache, cfg.GitHub.RepoName)
	}

	sessionService := service.NewSessionService(newRemote, newStorage, cfg.JWT.Secret, cfg.JWT.Expiration)

	authHandler := handler.NewAuthHandler(sessionService)
	itemHandler := handler.NewItemHandler(sessionService)
	assetHandler := handler.NewAssetHandler(sessionService)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	protected.HandleFunc("/users/me", authHandler.Me).Methods("GET", "OPTIONS")

	protected.HandleFunc("/items", itemHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/items", itemHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/items/image", itemHandler.CreateImage).Methods("POST", "OPTIONS")

	protected.HandleFunc("/assets", assetHandler.Upload).Methods("POST", "OPTIONS")
	protected.HandleFunc("/assets/{path:.*}", assetHandler.Get).Methods("GET", "OPTIONS")

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Mnemosyne Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Snapshot store at %s:%s, GitHub API at %s", cfg.Database.Host, cfg.Database.Port, cfg.GitHub.APIURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"mnemosyne-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Mnemosyne Server API","version":"1.0.0","endpoints":{"/api/v1/auth/login":"POST","/api/v1/items":"GET, POST (protected)","/api/v1/assets":"POST (protected)"}}`))
}
