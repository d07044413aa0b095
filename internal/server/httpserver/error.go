package httpserver

import (
	"errors"
	"strconv"

	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/pkg/vzerr"
)

// HandleCustomError writes e as `{"error": message}` and tags the response
// with the error category. Extras are logged, never sent.
func HandleCustomError(ctx *fiber.Ctx, e *vzerr.VizError) error {
	evt := log.Warn().
		Err(e).
		Str("method", ctx.Method()).
		Str("path", ctx.Path())
	if e.Extras != nil && len(*e.Extras) > 0 {
		evt = evt.Interface("extras", *e.Extras)
	}
	evt.Msg(e.Message)

	ctx.Set(constant.ErrorCodeHeader, e.ErrorCode)
	return ctx.Status(e.StatusCode).JSON(fiber.Map{"error": e.Message})
}

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	// Use custom error handler to return JSON error responses
	var ve *vzerr.VizError
	if errors.As(err, &ve) {
		return HandleCustomError(ctx, ve)
	}

	// Default 500 statuscode
	re := *vzerr.ErrInternalError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		// Overwrite status code if fiber.Error type & provided code
		re.StatusCode = fe.Code
		re.Message = fe.Message
		switch fe.Code {
		case fiber.StatusNotFound:
			re.ErrorCode = vzerr.CodeNotFound
		case fiber.StatusRequestEntityTooLarge:
			re.ErrorCode = vzerr.CodeInvalidRequest
		default:
			re.ErrorCode = "UNKNOWN_ERROR"
		}
	}

	if re.StatusCode >= fiber.StatusInternalServerError {
		log.Error().
			Stack().
			Err(err).
			Str("method", ctx.Method()).
			Str("path", ctx.Path()).
			Int("status", re.StatusCode).
			Msg("Internal Server Error")

		if hub := fibersentry.GetHubFromContext(ctx); hub != nil {
			hub.Scope().SetTag("status", strconv.Itoa(re.StatusCode))
			hub.CaptureException(err)
		}
	}

	return HandleCustomError(ctx, &re)
}
