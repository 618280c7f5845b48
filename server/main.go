// server/main.go
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ovoronin/inkwell/blog"
)

func main() {
	// A missing .env is fine; the environment itself may carry the config.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := blog.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	ctx := context.Background()
	var store blog.Store
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no DATABASE_URL set, running on the in-memory store")
		store = blog.NewMemoryStore()
	} else {
		db, err := blog.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("could not initialize database")
		}
		defer db.Close()
		if err := db.CreateTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not create tables")
		}
		log.Info().Msg("successfully connected to the database")
		store = db
	}

	if cfg.GroupsFile != "" {
		groups, err := blog.LoadGroupSeeds(cfg.GroupsFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.GroupsFile).Msg("could not load groups")
		}
		if err := blog.SeedGroups(ctx, store, groups); err != nil {
			log.Fatal().Err(err).Msg("could not seed groups")
		}
		log.Info().Int("count", len(groups)).Msg("seeded groups")
	}

	tpl, err := blog.LoadTemplates(cfg.TemplateGlob)
	if err != nil {
		log.Fatal().Err(err).Str("glob", cfg.TemplateGlob).Msg("could not parse templates")
	}

	sessions := scs.New()
	sessions.Lifetime = cfg.SessionLifetime

	cache := blog.NewPageCache(cfg.IndexCacheTTL)
	handlers := blog.NewHandlers(store, cache, sessions, tpl, log, cfg)

	svr := &http.Server{
		Addr:    cfg.Addr,
		Handler: sessions.LoadAndSave(handlers.Router()),
	}

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := svr.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
