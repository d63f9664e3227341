package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/formvault/document-storage-backend/api/filehandler"
	"github.com/formvault/document-storage-backend/cmd/flags"
	"github.com/formvault/document-storage-backend/common"
	"github.com/formvault/document-storage-backend/cryptoname"
	"github.com/formvault/document-storage-backend/httpserver"
	"github.com/formvault/document-storage-backend/metadata"
	"github.com/formvault/document-storage-backend/storage"
	"github.com/formvault/document-storage-backend/validation"
	"github.com/formvault/document-storage-backend/vault"
)

var serviceFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.NamingSecretFlag,
	flags.UploadDirFlag,
	flags.RedisURLFlag,
	flags.AdminKeysFileFlag,
	flags.CORSOriginsFlag,
	flags.LogServiceFlagFn("document-storage"),
}, append(append(append([]cli.Flag{}, flags.UploadFlags...), flags.StorageFlags...), flags.CommonFlags...)...)

func main() {
	flags.LoadDotEnv()

	app := &cli.App{
		Name:  "document-storage-server",
		Usage: "Serve the document upload, storage and verification API",
		Flags: serviceFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			namingSecret := cCtx.String(flags.NamingSecretFlag.Name)
			uploadDir := cCtx.String(flags.UploadDirFlag.Name)
			redisURL := cCtx.String(flags.RedisURLFlag.Name)
			adminKeysFile := cCtx.String(flags.AdminKeysFileFlag.Name)

			logger := flags.SetupLogger(cCtx)

			// Validation pipeline and name cipher. The namer derives its key
			// once; the same secret re-derives the same key after a restart.
			validator := validation.New(flags.ConfigureValidation(cCtx), logger)

			namer, err := cryptoname.New(namingSecret)
			if err != nil {
				logger.Error("Failed to initialize name cipher", "err", err)
				return err
			}

			observer, err := storage.NewPrometheusObserver(common.PackageName, nil)
			if err != nil {
				logger.Error("Failed to register storage metrics", "err", err)
				return err
			}

			// Backend selection is re-resolved on every request from this
			// source, so admin updates take effect without a restart.
			initialBackend, err := flags.ConfigureBackend(cCtx)
			if err != nil {
				logger.Error("Invalid storage configuration", "err", err)
				return err
			}
			configSource := storage.NewRuntimeConfigSource(initialBackend)
			resolver := storage.NewResolver(configSource, uploadDir, observer, logger)

			// Probe once at startup so a misconfigured backend is visible in
			// the logs immediately instead of on the first upload.
			startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			backend, err := resolver.Resolve(startupCtx)
			cancel()
			if err != nil {
				logger.Error("Failed to resolve a storage backend", "err", err)
				return err
			}
			logger.Info("Storage backend ready",
				"backend", backend.Name(),
				"kind", backend.Kind().String(),
				"configuredKind", initialBackend.Kind.String())

			documentVault := vault.New(validator, namer, resolver, logger)

			var store metadata.Store
			if redisURL != "" {
				store, err = metadata.NewRedisStore(context.Background(), metadata.RedisConfig{URL: redisURL}, logger)
				if err != nil {
					logger.Error("Failed to connect to redis metadata store", "err", err)
					return err
				}
			} else {
				logger.Warn("No redis-url configured, file records are kept in memory and lost on restart")
				store = metadata.NewMemoryStore()
			}
			defer store.Close()

			files := filehandler.NewHandler(documentVault, store, logger)

			var admin *httpserver.AdminHandler
			if adminKeysFile != "" {
				keysData, err := os.Open(adminKeysFile)
				if err != nil {
					logger.Error("Failed to open admin keys file", "err", err)
					return err
				}
				adminKeys, err := httpserver.LoadAdminKeys(keysData)
				keysData.Close()
				if err != nil {
					logger.Error("Failed to load admin keys", "err", err)
					return err
				}
				logger.Info("Admin API enabled", "admins", len(adminKeys))
				admin = httpserver.NewAdminHandler(configSource, adminKeys, logger)
			} else {
				logger.Info("No admin keys file configured, admin API disabled")
			}

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			prober := httpserver.ServiceProber{Resolver: resolver, Store: store}

			server, err := httpserver.New(cfg, files, admin, prober)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
