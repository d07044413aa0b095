package meta

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"equipviz.dev/backend/internal/pkg/bininfo"
	"equipviz.dev/backend/internal/pkg/cachectrl"
	"equipviz.dev/backend/internal/server/svr"
	"equipviz.dev/backend/internal/service"
)

type Meta struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c Meta) {
	meta.Get("/bininfo", c.BinInfo)

	meta.Get("/health", cache.New(cache.Config{
		// cache it for a second to mitigate potential DDoS
		Expiration: time.Second,
	}), c.Health)
}

// @Summary  Get build information
// @Tags     Meta
// @Produce  json
// @Success  200 {object} bininfo.Info
// @Router   /_/bininfo [GET]
func (c Meta) BinInfo(ctx *fiber.Ctx) error {
	if built, err := time.Parse(time.RFC3339, bininfo.BuildTime); err == nil {
		cachectrl.OptIn(ctx, built, time.Hour)
	}
	return ctx.JSON(bininfo.Current())
}

// @Summary  Check backend health
// @Tags     Meta
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} map[string]string
// @Router   /_/health [GET]
func (c Meta) Health(ctx *fiber.Ctx) error {
	cachectrl.OptOut(ctx)
	if err := c.HealthService.Ping(ctx.UserContext()); err != nil {
		log.Warn().
			Str("evt.name", "health.ping.failed").
			Err(err).
			Msg("health check failed")
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return ctx.JSON(fiber.Map{
		"status": "ok",
	})
}
