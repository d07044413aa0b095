package appconfig

import (
	"time"

	"equipviz.dev/backend/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:8000"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// LogFile is the path of the rotated log file. Leaving this empty disables file logging.
	LogFile string `split_words:"true" default:"logs/app.log"`

	// LogFileMaxSizeMB is the size in megabytes at which the log file is rotated.
	LogFileMaxSizeMB int `split_words:"true" default:"100"`

	// LogFileMaxBackups is the number of rotated log files to keep.
	LogFileMaxBackups int `split_words:"true" default:"5"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// log at trace level.
	DevMode bool `split_words:"true"`

	// TracingEnabled to indicate whether to enable OpenTelemetry tracing.
	TracingEnabled bool `split_words:"true"`

	// TracingExporters to indicate which exporters to use for tracing.
	// Valid values are: jaeger, otlp, stdout (for debug).
	TracingExporters []string `split_words:"true" default:"otlp"`

	// TracingSampleRate to indicate the sampling rate for tracing.
	// Valid values are: 0.0 (disabled), 1.0 (all traces), or a value between 0.0 and 1.0 (sampling rate).
	TracingSampleRate float64 `split_words:"true" default:"1.0"`

	// StorageBackend selects where the summary history lives. Valid values are: postgres, memory.
	// The memory backend keeps history only for the lifetime of the process.
	StorageBackend StorageBackend `split_words:"true" default:"postgres"`

	// infrastructure components connection instructions

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	// Required when StorageBackend is postgres.
	PostgresDSN string `split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// InfraConnectAttempts is how many times connecting to an infrastructure component is tried at startup.
	InfraConnectAttempts uint `split_words:"true" default:"3"`

	// RedisURL is the URL of the Redis server. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	// for more information on how to construct a Redis URL. Leaving this empty disables the shared
	// history cache and idempotent uploads; an in-process cache is used instead.
	RedisURL string `split_words:"true"`

	// NatsURL is the URL of the NATS server. See https://pkg.go.dev/github.com/nats-io/nats.go#Connect
	// for more information on how to construct a NATS URL. Leaving this empty disables summary events.
	NatsURL string `split_words:"true"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// ArchiveS3Bucket is the bucket raw uploads are archived to. Leaving this empty disables archiving.
	ArchiveS3Bucket string `split_words:"true"`

	// ArchiveS3Region is the region of ArchiveS3Bucket.
	ArchiveS3Region string `split_words:"true" default:"us-east-1"`

	// ArchiveS3Endpoint overrides the S3 endpoint, e.g. for MinIO. Path-style addressing is used when set.
	ArchiveS3Endpoint string `split_words:"true"`

	// AWSAccessKey and AWSSecretKey are static credentials for the archive bucket. When empty, the
	// default AWS credential chain is used.
	AWSAccessKey string `split_words:"true"`
	AWSSecretKey string `split_words:"true"`

	// ArchiveTimeout bounds a single archive upload.
	ArchiveTimeout time.Duration `split_words:"true" default:"30s"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// UploadBodyLimit is the maximum accepted request body size in bytes.
	UploadBodyLimit int `split_words:"true" default:"16777216"`

	// HistoryCacheTTL is how long a cached history listing may be served.
	HistoryCacheTTL time.Duration `split_words:"true" default:"30s"`

	// IdempotencyKeyLifetime is how long the response of an idempotent upload is replayed.
	IdempotencyKeyLifetime time.Duration `split_words:"true" default:"24h"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
