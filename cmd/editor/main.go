// Package main provides the scenario variable editor binary. It loads
// the variable definitions and scenario content, opens an edit session
// for one scenario object, and runs the terminal dialog over it.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tmachale/scenforge/internal/config"
	"github.com/tmachale/scenforge/internal/editor/session"
	"github.com/tmachale/scenforge/internal/editor/validate"
	"github.com/tmachale/scenforge/internal/observability"
	"github.com/tmachale/scenforge/internal/scenario/entity"
	"github.com/tmachale/scenforge/internal/scenario/variable"
	"github.com/tmachale/scenforge/internal/storage/postgres"
	"github.com/tmachale/scenforge/internal/tui"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	kindFlag := flag.String("kind", "", "scenario object kind: entity_class | entity_template | faction_class")
	objectID := flag.String("id", "", "id of the scenario object to edit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	kind := entity.Kind(*kindFlag)
	if !kind.Valid() {
		logger.Fatal("invalid -kind", zap.String("kind", *kindFlag))
	}
	if *objectID == "" {
		logger.Fatal("-id is required")
	}

	// Load variable definitions.
	regStart := time.Now()
	registry, err := variable.LoadDirectory(cfg.Content.VariablesDir)
	if err != nil {
		logger.Fatal("loading variable definitions", zap.Error(err))
	}
	logger.Info("variable definitions loaded",
		zap.String("dir", cfg.Content.VariablesDir),
		zap.Duration("elapsed", time.Since(regStart)),
	)

	// Load scenario content.
	scenStart := time.Now()
	scen, err := entity.LoadScenario(cfg.Content.ClassesDir, cfg.Content.TemplatesDir, cfg.Content.FactionsDir)
	if err != nil {
		logger.Fatal("loading scenario content", zap.Error(err))
	}
	logger.Info("scenario content loaded",
		zap.Int("classes", len(scen.Classes)),
		zap.Int("templates", len(scen.Templates)),
		zap.Int("factions", len(scen.Factions)),
		zap.Duration("elapsed", time.Since(scenStart)),
	)

	// The validator always enforces value bounds; Lua rules are loaded on
	// top when a rules directory is configured.
	validator := validate.NewValidator(logger)
	defer validator.Close()
	if cfg.Content.RulesDir != "" {
		if err := validator.LoadRules(cfg.Content.RulesDir); err != nil {
			logger.Fatal("loading validation rules", zap.String("dir", cfg.Content.RulesDir), zap.Error(err))
		}
		logger.Info("validation rules loaded", zap.String("dir", cfg.Content.RulesDir))
	}

	// Connect override persistence when configured.
	var repo session.Repository
	if cfg.Editor.Persistence == "postgres" {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		repo = postgres.NewOverrideRepository(pool.DB())
	}

	sess, err := session.Open(scen, registry, kind, *objectID, validator, repo, logger)
	if err != nil {
		logger.Fatal("opening edit session",
			zap.String("kind", string(kind)),
			zap.String("id", *objectID),
			zap.Error(err),
		)
	}

	logger.Info("editor initialized",
		zap.String("kind", string(kind)),
		zap.String("id", *objectID),
		zap.Duration("startup", time.Since(start)),
	)

	final, err := tea.NewProgram(tui.New(sess, registry), tea.WithAltScreen()).Run()
	if err != nil {
		logger.Fatal("running editor", zap.Error(err))
	}

	m, ok := final.(tui.Model)
	if !ok {
		logger.Fatal("unexpected final model type")
	}
	if m.Committed {
		logger.Info("editor exited after commit",
			zap.String("session", sess.ID()),
			zap.Bool("changed", m.Changed),
		)
	} else {
		logger.Info("editor exited without commit",
			zap.String("session", sess.ID()),
		)
	}
}
