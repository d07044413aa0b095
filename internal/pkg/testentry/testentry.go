package testentry

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"equipviz.dev/backend/internal/app"
	"equipviz.dev/backend/internal/app/appcontext"
)

// Populate starts the application graph on the in-memory storage backend with
// no optional infrastructure, fills targets, and stops the graph when t ends.
func Populate(t *testing.T, targets ...any) {
	t.Helper()

	t.Setenv("EQUIPVIZ_STORAGE_BACKEND", "memory")
	t.Setenv("EQUIPVIZ_LOG_FILE", "")
	t.Setenv("EQUIPVIZ_REDIS_URL", "")
	t.Setenv("EQUIPVIZ_NATS_URL", "")
	t.Setenv("EQUIPVIZ_ARCHIVE_S3_BUCKET", "")
	t.Setenv("EQUIPVIZ_SENTRY_DSN", "")
	t.Setenv("EQUIPVIZ_TRACING_ENABLED", "false")

	opts := app.Options(appcontext.Declare(appcontext.EnvTest),
		fx.Populate(targets...),
	)

	fxApp := fxtest.New(t, opts...)
	log.Logger = log.Logger.Output(zerolog.NewTestWriter(t))
	fxApp.RequireStart()
	t.Cleanup(fxApp.RequireStop)
}
