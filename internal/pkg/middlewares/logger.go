package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/pkg/flog"
)

func Logger(app *fiber.App) {
	Chained(
		app,
		flog.Inject(log.Logger, flog.Fields{
			RequestID: "request_id",
			IP:        "ip",
			Request:   "request",
			UserAgent: "user_agent",
		}, constant.RequestIDHeader),
		requestLogger(),
	)
}

func requestLogger() fiber.Handler {
	return flog.AccessHandler(func(ctx *fiber.Ctx, duration time.Duration) {
		evt := flog.FromFiberCtx(ctx).Info()
		if ctx.Response().StatusCode() >= fiber.StatusInternalServerError {
			evt = flog.FromFiberCtx(ctx).Warn()
		}
		evt.
			Str("evt.name", "http.request").
			Int("status", ctx.Response().StatusCode()).
			Int("size", len(ctx.Response().Body())).
			Dur("duration", duration).
			Msg("served request")
	})
}
