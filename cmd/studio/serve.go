package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sqliteadapter "github.com/atvirokodosprendimai/studio/internal/adapters/db/sqlite"
	filesadapter "github.com/atvirokodosprendimai/studio/internal/adapters/files"
	httpadapter "github.com/atvirokodosprendimai/studio/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/studio/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/studio/internal/application"
	"github.com/atvirokodosprendimai/studio/internal/bridge"
	"github.com/atvirokodosprendimai/studio/internal/catalog"
	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/platform/config"
	"github.com/atvirokodosprendimai/studio/internal/platform/logger"
	"github.com/atvirokodosprendimai/studio/internal/platform/metrics"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Open the store and serve JSON-RPC and HTTP until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Usage: "directory holding studio.sqlite, backups and attachments"},
			&cli.StringFlag{Name: "catalog-dir", Usage: "folder of service definitions (default <data-dir>/services)"},
			&cli.StringFlag{Name: "http-addr", Usage: "HTTP listen address, empty string disables HTTP"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "json or console"},
			&cli.BoolFlag{Name: "no-backup-on-shutdown", Usage: "skip the backup written on shutdown"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("data-dir") {
				cfg.App.DataDir = c.String("data-dir")
			}
			if c.IsSet("catalog-dir") {
				cfg.App.CatalogDir = c.String("catalog-dir")
			}
			if c.IsSet("http-addr") {
				cfg.Transport.HTTPAddr = c.String("http-addr")
			}
			if c.IsSet("socket") {
				cfg.Transport.RPCSocket = c.String("socket")
			}
			if c.IsSet("log-level") {
				cfg.App.LogLevel = c.String("log-level")
			}
			if c.IsSet("log-format") {
				cfg.App.LogFormat = c.String("log-format")
			}
			if c.Bool("no-backup-on-shutdown") {
				cfg.App.BackupOnShutdown = false
			}
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.New(logger.Options{
		ServiceName: "studio",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	store, err := sqliteadapter.OpenStore(ctx, cfg.App.DataDir, sqliteadapter.StoreOptions{
		Admin:  sqliteadapter.AdminSeed{Email: cfg.Admin.Email, Name: cfg.Admin.Name, Password: cfg.Admin.Password},
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	log.Info(log.WithField(ctx, "path", store.PrimaryPath()), "store opened")

	attachments, err := filesadapter.NewAttachments(cfg.App.DataDir)
	if err != nil {
		return err
	}
	ops := metrics.NewOperations()
	service := application.NewStudioService(application.Dependencies{
		Repo:        sqliteadapter.NewStudioRepository(store.DB()),
		Snapshots:   store,
		Attachments: attachments,
		Catalog:     catalog.NewFolder(cfg.App.CatalogPath()),
		Logger:      log,
	})
	table := bridge.NewTable(service, bridge.WithLogger(log), bridge.WithObserver(ops))

	rpcSrv, err := rpcadapter.Start(cfg.Transport.RPCSocket, table, log)
	if err != nil {
		return err
	}
	defer func() { _ = rpcSrv.Close() }()
	log.Info(log.WithField(ctx, "socket", cfg.Transport.RPCSocket), "json-rpc listening")

	errCh := make(chan error, 1)
	var srv *http.Server
	if cfg.Transport.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.Transport.HTTPAddr,
			Handler:           httpadapter.NewRouter(table, ops.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info(log.WithField(ctx, "addr", srv.Addr), "http listening")
			errCh <- srv.ListenAndServe()
		}()
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-sigCtx.Done():
		log.Info(ctx, "shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "http shutdown", err)
		}
	}
	_ = rpcSrv.Close()

	flushOnShutdown(shutdownCtx, store, log, cfg.App.BackupOnShutdown)
	return serveErr
}

// flushOnShutdown never fails: the process is exiting either way.
func flushOnShutdown(ctx context.Context, store domain.Snapshotter, log *logger.Logger, backup bool) {
	if err := store.Save(ctx); err != nil {
		log.Error(ctx, "final save failed", err)
	}
	if !backup {
		return
	}
	path, err := store.Backup(ctx)
	if err != nil {
		log.Error(ctx, "shutdown backup failed", err)
		return
	}
	log.Info(log.WithField(ctx, "path", path), "shutdown backup written")
}
