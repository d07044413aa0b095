package api

import (
	"github.com/go-redsync/redsync/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"equipviz.dev/backend/internal/app/appconfig"
	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
	"equipviz.dev/backend/internal/pkg/cachectrl"
	"equipviz.dev/backend/internal/pkg/fiberstore"
	"equipviz.dev/backend/internal/pkg/flog"
	"equipviz.dev/backend/internal/pkg/middlewares"
	"equipviz.dev/backend/internal/pkg/rekuest"
	"equipviz.dev/backend/internal/pkg/vzerr"
	"equipviz.dev/backend/internal/server/svr"
	"equipviz.dev/backend/internal/service"
)

type Summary struct {
	fx.In

	SummaryService *service.Summary
	Config         *appconfig.Config

	Redis   *redis.Client    `optional:"true"`
	RedSync *redsync.Redsync `optional:"true"`
}

func RegisterSummary(api *svr.API, c Summary) {
	upload := []fiber.Handler{}
	if c.Redis != nil && c.RedSync != nil {
		upload = append(upload, middlewares.ReplayUploads(middlewares.ReplayConfig{
			Lifetime: c.Config.IdempotencyKeyLifetime,
			Storage:  fiberstore.NewRedis(c.Redis, constant.UploadIdempotencyRedisHashKey),
			Locker:   middlewares.RedsyncLocker(c.RedSync),
		}))
	}
	upload = append(upload, c.Upload)

	api.Post("/upload", upload...)
	api.Get("/datasets", c.Datasets)
}

type historyQuery struct {
	Limit *int `query:"limit" validate:"omitempty,min=1,max=5"`
}

// @Summary      Upload Equipment Data
// @Description  Aggregate an equipment CSV export and append its summary to the history. Send an
// @Description  Idempotency-Key header to make client retries safe.
// @Tags         Summary
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV with Type, Flowrate, Pressure and Temperature columns"
// @Success      201   {object}  model.Summary
// @Failure      400   {object}  map[string]string  "No file, malformed CSV, missing columns or no data rows"
// @Failure      500   {object}  map[string]string  "History storage unavailable"
// @Router       /upload [POST]
func (c Summary) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile(constant.UploadFormField)
	if err != nil {
		return vzerr.ErrInvalidReq.Msg("No file provided")
	}

	f, err := header.Open()
	if err != nil {
		return vzerr.ErrMalformedInput.Wrap(err)
	}
	defer f.Close()

	flog.DebugFrom(ctx).
		Str("evt.name", "summary.upload.received").
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Msg("received upload")

	summary, err := c.SummaryService.Submit(ctx.UserContext(), f)
	if err != nil {
		return err
	}

	cachectrl.OptOut(ctx)
	return ctx.Status(fiber.StatusCreated).JSON(summary)
}

// @Summary      List Upload History
// @Description  Summaries of the most recent uploads, newest first. At most five are retained.
// @Tags         Summary
// @Produce      json
// @Param        limit  query     int  false  "Return at most this many records (1-5)"
// @Success      200    {array}   model.SummaryRecord
// @Failure      400    {object}  map[string]string  "Invalid limit"
// @Failure      500    {object}  map[string]string  "History storage unavailable"
// @Router       /datasets [GET]
func (c Summary) Datasets(ctx *fiber.Ctx) error {
	var query historyQuery
	if err := rekuest.ValidQuery(ctx, &query); err != nil {
		return err
	}

	records, err := c.SummaryService.History(ctx.UserContext())
	if err != nil {
		return err
	}

	if records == nil {
		records = []*model.SummaryRecord{}
	}
	if query.Limit != nil && *query.Limit < len(records) {
		records = records[:*query.Limit]
	}

	cachectrl.OptOut(ctx)
	return ctx.JSON(records)
}
