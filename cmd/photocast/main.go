package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"photocast/internal/notifier"
	"photocast/internal/player"
	"photocast/internal/server"
	"photocast/internal/slideshow"
	"photocast/internal/store"
)

func main() {
	dbPath := envOr("DB_PATH", "./data/photocast.db")
	listenAddr := envOr("LISTEN_ADDR", ":7980")
	migrationsDir := envOr("MIGRATIONS_DIR", "./migrations")
	baseURL := envOr("BASE_URL", "http://localhost:7980")
	playerAPI := envOr("PLAYER_API", "http://localhost:8008")
	corsOrigin := os.Getenv("CORS_ORIGIN")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatal(err)
	}

	s, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer s.Close()

	if err := s.Migrate(migrationsDir); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	var channels []notifier.Channel
	if u := os.Getenv("NOTIFY_WEBHOOK_URL"); u != "" {
		channels = append(channels, notifier.Channel{Type: notifier.ChannelWebhook, Name: "webhook", URL: u})
	}
	if topic := os.Getenv("NOTIFY_NTFY_TOPIC"); topic != "" {
		channels = append(channels, notifier.Channel{Type: notifier.ChannelNtfy, Name: "ntfy", URL: "https://ntfy.sh/" + topic})
	}
	if u := os.Getenv("NOTIFY_DISCORD_WEBHOOK"); u != "" {
		channels = append(channels, notifier.Channel{Type: notifier.ChannelDiscord, Name: "discord", URL: u})
	}
	if len(channels) > 0 {
		log.Printf("notifications enabled on %d channel(s)", len(channels))
	}

	ctrl := player.NewClient(playerAPI)
	engine := slideshow.New(s, ctrl,
		slideshow.WithBaseURL(baseURL),
		slideshow.WithNotifier(notifier.New(channels...)),
	)
	defer engine.Shutdown()

	var opts []server.Option
	if corsOrigin != "" {
		opts = append(opts, server.WithCORSOrigin(corsOrigin))
	}
	srv := server.NewServer(s, engine, opts...)

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("PhotoCast listening on %s (player API %s)", listenAddr, playerAPI)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
