package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/tgienger/rooted/internal/clock"
	"github.com/tgienger/rooted/internal/config"
	"github.com/tgienger/rooted/internal/db"
	"github.com/tgienger/rooted/internal/engine"
	"github.com/tgienger/rooted/internal/planner"
)

// app is everything a command needs, opened from the loaded configuration
type app struct {
	cfg     *config.Config
	db      *db.DB
	engine  *engine.Engine
	planner *planner.Planner
	clock   clock.Clock
	log     *log.Logger
}

func newLogger() *log.Logger {
	var w io.Writer = io.Discard
	if verbose {
		w = os.Stderr
	}
	return log.New(w, "rooted: ", log.LstdFlags)
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}

	opts, err := planner.OptionsFromConfig(cfg, logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	clk := clock.Real{}
	eng := engine.New(database, logger, clk)
	return &app{
		cfg:     cfg,
		db:      database,
		engine:  eng,
		planner: planner.New(database, eng, opts),
		clock:   clk,
		log:     logger,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
