package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vbonduro/findit/internal/config"
	"github.com/vbonduro/findit/internal/db"
	"github.com/vbonduro/findit/internal/logging"
	"github.com/vbonduro/findit/internal/photostore/local"
	"github.com/vbonduro/findit/internal/service"
	"github.com/vbonduro/findit/internal/store"
	"github.com/vbonduro/findit/internal/vision"
	claudevision "github.com/vbonduro/findit/internal/vision/claude"
	ollamavision "github.com/vbonduro/findit/internal/vision/ollama"
)

// app holds everything a subcommand needs. It is filled in by
// PersistentPreRunE.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *db.Manager
	catalog *service.CatalogService
	json    bool

	closeLog func()
}

// newRootCmd builds the command tree around a. The caller stops a once the
// command has run.
func newRootCmd(a *app) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "findit",
		Short: "findit keeps track of where you left things",
		Long: `findit is a catalogue of photographed items. Each item has a photo, a
label, an optional note, an optional GPS location and an optional room.

Configuration comes from the environment (DB_PATH, PHOTO_PATH, VISION_BACKEND,
...), a .env file in the working directory, or the file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.start(configFile)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (YAML, TOML or JSON)")
	root.PersistentFlags().BoolVar(&a.json, "json", false, "output as JSON")

	root.AddCommand(newItemsCmd(a))
	root.AddCommand(newRoomsCmd(a))
	root.AddCommand(newMigrateCmd(a))
	return root
}

func (a *app) start(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return usageErrorf("load config: %v", err)
	}
	a.cfg = cfg

	logger, cleanup, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.closeLog = cleanup

	photos, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	a.manager = db.NewManager(cfg.DBPath, logger)
	a.catalog = service.NewCatalogService(
		store.NewItemStore(a.manager, photos, logger),
		store.NewRoomStore(a.manager, logger),
		photos,
		newLabeler(cfg, logger),
		cfg.ListLimit,
		logger,
	)
	return nil
}

func (a *app) stop() error {
	var err error
	if a.manager != nil {
		err = a.manager.Close()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
	return err
}

// newLabeler returns nil when no vision backend is configured.
func newLabeler(cfg *config.Config, logger *slog.Logger) vision.Labeler {
	switch cfg.VisionBackend {
	case config.VisionClaude:
		logger.Debug("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeLabeler(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case config.VisionOllama:
		logger.Debug("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaLabeler(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Open the database and bring its schema up to date",
		Long: `Migrate opens the database, applies every schema step and prints which
steps were applied and which advisory steps were skipped. Every other command
does this implicitly on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.manager.Acquire(cmd.Context()); err != nil {
				return err
			}
			return a.printReport(cmd.OutOrStdout(), a.manager.Report())
		},
	}
}
