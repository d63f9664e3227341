// Package flags defines the command-line flags shared by the binaries in
// this repository, plus helpers that turn parsed flags into configured
// components.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/formvault/document-storage-backend/api"
	"github.com/formvault/document-storage-backend/common"
	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/validation"
)

// LoadDotEnv loads a .env file into the process environment so flags with
// EnvVars pick its values up. A missing file is not an error; explicit
// environment variables always win over file values.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from the logging flags.
func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer builds the HTTP server configuration from the server and
// common flags.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String("metrics-addr")
	enablePprof := cCtx.Bool("pprof")
	drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		CORSAllowedOrigins:       cCtx.StringSlice(CORSOriginsFlag.Name),
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ConfigureValidation builds the upload validation limits from the upload
// flags. Unset flags fall back to the validation package defaults.
func ConfigureValidation(cCtx *cli.Context) validation.Config {
	return validation.Config{
		MaxSizeBytes:      cCtx.Int64(MaxUploadSizeFlag.Name),
		AllowedMIMETypes:  cCtx.StringSlice(AllowedMIMETypesFlag.Name),
		AllowedExtensions: cCtx.StringSlice(AllowedExtensionsFlag.Name),
	}
}

// ConfigureBackend builds the initial storage backend configuration from the
// storage flags. It is a starting value only: the admin API can replace it
// at runtime.
func ConfigureBackend(cCtx *cli.Context) (interfaces.BackendConfiguration, error) {
	kind, err := interfaces.ParseBackendKind(cCtx.String(StorageKindFlag.Name))
	if err != nil {
		return interfaces.BackendConfiguration{}, err
	}
	return interfaces.BackendConfiguration{
		Kind:      kind,
		Endpoint:  cCtx.String(S3EndpointFlag.Name),
		Bucket:    cCtx.String(S3BucketFlag.Name),
		Region:    cCtx.String(S3RegionFlag.Name),
		AccessKey: cCtx.String(S3AccessKeyFlag.Name),
		SecretKey: cCtx.String(S3SecretKeyFlag.Name),
	}, nil
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	EnvVars: []string{"LISTEN_ADDR"},
	Usage:   "address to listen on for the files API",
}

var NamingSecretFlag = &cli.StringFlag{
	Name:     "naming-secret",
	Required: true,
	EnvVars:  []string{"FILE_NAMING_SECRET"},
	Usage:    "secret the storage naming key is derived from; changing it orphans previously stored names",
}

var UploadDirFlag = &cli.StringFlag{
	Name:    "upload-dir",
	Value:   "./uploads",
	EnvVars: []string{"UPLOAD_DIR"},
	Usage:   "root directory for locally stored uploads",
}

var MaxUploadSizeFlag = &cli.Int64Flag{
	Name:    "max-upload-bytes",
	Value:   validation.DefaultMaxSizeBytes,
	EnvVars: []string{"MAX_UPLOAD_BYTES"},
	Usage:   "maximum accepted upload size in bytes",
}

var AllowedMIMETypesFlag = &cli.StringSliceFlag{
	Name:  "allowed-mime-type",
	Usage: "MIME type to accept; repeat for several (default: image/jpeg, image/png, application/pdf)",
}

var AllowedExtensionsFlag = &cli.StringSliceFlag{
	Name:  "allowed-extension",
	Usage: "filename extension to accept, without the dot; repeat for several (default: jpg, jpeg, png, pdf)",
}

var StorageKindFlag = &cli.StringFlag{
	Name:    "storage-kind",
	Value:   "local",
	EnvVars: []string{"STORAGE_KIND"},
	Usage:   "initial storage backend: 'local' or 'remote'",
}

var S3EndpointFlag = &cli.StringFlag{
	Name:    "s3-endpoint",
	EnvVars: []string{"S3_ENDPOINT"},
	Usage:   "custom S3 endpoint for S3-compatible stores; empty for AWS",
}

var S3BucketFlag = &cli.StringFlag{
	Name:    "s3-bucket",
	EnvVars: []string{"S3_BUCKET"},
	Usage:   "S3 bucket for remote storage",
}

var S3RegionFlag = &cli.StringFlag{
	Name:    "s3-region",
	EnvVars: []string{"S3_REGION"},
	Usage:   "S3 region for remote storage",
}

var S3AccessKeyFlag = &cli.StringFlag{
	Name:    "s3-access-key",
	EnvVars: []string{"S3_ACCESS_KEY"},
	Usage:   "S3 access key for remote storage",
}

var S3SecretKeyFlag = &cli.StringFlag{
	Name:    "s3-secret-key",
	EnvVars: []string{"S3_SECRET_KEY"},
	Usage:   "S3 secret key for remote storage",
}

var RedisURLFlag = &cli.StringFlag{
	Name:    "redis-url",
	EnvVars: []string{"REDIS_URL"},
	Usage:   "redis:// URL for the metadata store; empty keeps records in memory",
}

var AdminKeysFileFlag = &cli.StringFlag{
	Name:    "admin-keys-file",
	EnvVars: []string{"ADMIN_KEYS_FILE"},
	Usage:   "JSON file with admin public keys; empty disables the admin API",
}

var CORSOriginsFlag = &cli.StringSliceFlag{
	Name:    "cors-allow-origin",
	EnvVars: []string{"CORS_ALLOW_ORIGINS"},
	Usage:   "origin allowed to call the API from a browser; repeat for several",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

// UploadFlags configure the validation pipeline.
var UploadFlags = []cli.Flag{
	MaxUploadSizeFlag,
	AllowedMIMETypesFlag,
	AllowedExtensionsFlag,
}

// StorageFlags configure the initial backend selection.
var StorageFlags = []cli.Flag{
	StorageKindFlag,
	S3EndpointFlag,
	S3BucketFlag,
	S3RegionFlag,
	S3AccessKeyFlag,
	S3SecretKeyFlag,
}
