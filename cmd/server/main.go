package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"studyspots/internal/app"
	"studyspots/internal/config"
	"studyspots/internal/db"
	"studyspots/internal/explorer"
	"studyspots/internal/live"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()
	log.Printf("store: %s", cfg.StoreDriver)

	hub := live.NewHub()
	go hub.Run(ctx)

	sessions := explorer.NewRegistry(st, explorer.Options{
		RelayTimeout: cfg.RelayTimeout,
		Campus:       cfg.Campus,
	}, cfg.SessionTTL, func(id string, v explorer.View) {
		hub.Publish(id, v.Version, v)
	})
	go sessions.Run(ctx, time.Minute)

	r := app.Router(app.Deps{
		Store:         st,
		Sessions:      sessions,
		Hub:           hub,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	log.Printf("listening on :%s", cfg.Port)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	sessions.Drain()
}
