package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/getmockd/seedql/pkg/config"
	"github.com/getmockd/seedql/pkg/instance"
	"github.com/getmockd/seedql/pkg/metrics"
	"github.com/getmockd/seedql/pkg/server"
	"github.com/getmockd/seedql/pkg/store"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveAddr       string
	serveDataDir    string
	serveNoPersist  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server",
	Long: `Start the mock server for the schemas declared in a project file.

Each schema variant is served at /graphql/{name}/{variant}. Instances are
built on their first request; seeds from seed files and from the data
directory are registered at that point.`,
	Example: `  # Serve seedql.yaml in the current directory
  seedql serve

  # Use another project file and port
  seedql serve -c config/seedql.yaml --addr :8080

  # Keep seeds in memory only
  seedql serve --no-persist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(serveConfigPath)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveDataDir != "" {
			cfg.DataDir = serveDataDir
		}

		log := newLogger(cmd, cfg.Log.Level, cfg.Log.Format)
		if serveNoPersist {
			cfg.DataDir = ""
		}
		srv, mgr, err := buildServer(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := warmUp(ctx, mgr, cfg); err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

// buildServer wires a server from cfg. Seed files and, when a data
// directory is set, the file store feed each instance as it is built.
func buildServer(cfg *config.Config, log *slog.Logger) (*server.Server, *instance.Manager, error) {
	records, err := config.LoadSeedFiles(cfg.BaseDir(), cfg.SeedFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("loading seed files: %w", err)
	}

	var fs *store.FileStore
	if cfg.DataDir != "" {
		fs = store.NewFileStore(config.ResolvePath(cfg.BaseDir(), cfg.DataDir), log)
		log.Info("persisting seeds", "dir", fs.Dir())
	}

	m := metrics.New()
	preload := []instance.PreloadFunc{config.SeedPreload(records)}
	if fs != nil {
		preload = append(preload, fs.Preload)
	}

	mgr := instance.NewManager(cfg.SchemaSource(), instance.Options{
		Generator:    cfg.Generator,
		Merge:        cfg.Merge,
		Preload:      instance.ChainPreload(preload...),
		SeedObserver: m,
		Observer:     m,
		Logger:       log,
	})

	log.Info("configured",
		"schemas", len(cfg.Schemas),
		"seedRecords", len(records),
		"addr", cfg.Server.Addr,
	)
	srv := server.New(mgr, server.Options{
		GroupHeader: cfg.Server.GroupHeader,
		Store:       fs,
		Metrics:     m,
		Logger:      log,
	})
	return srv, mgr, nil
}

// warmUp builds every configured instance so schema errors surface at
// startup.
func warmUp(ctx context.Context, mgr *instance.Manager, cfg *config.Config) error {
	for _, key := range cfg.SchemaSource().Keys() {
		if _, err := mgr.Get(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "seedql.yaml", "Path to the project file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Seed persistence directory (overrides dataDir)")
	serveCmd.Flags().BoolVar(&serveNoPersist, "no-persist", false, "Do not persist seeds registered over HTTP")
	rootCmd.AddCommand(serveCmd)
}
