// Package rekuest validates request input with a shared validator and turns
// violations into INVALID_REQUEST errors.
package rekuest

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"equipviz.dev/backend/internal/pkg/vzerr"
)

var (
	Validate = validator.New()

	translator ut.Translator
)

func init() {
	locale := en.New()
	translator, _ = ut.New(locale, locale).GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(Validate, translator); err != nil {
		log.Warn().Err(err).Str("locale", "en").Msg("could not register translation")
	}
}

type ErrorResponse struct {
	Field     string `json:"field,omitempty"`
	Violation string `json:"violation"`
	Message   string `json:"message"`
}

func translate(ve validator.ValidationErrors) []*ErrorResponse {
	trans := make([]*ErrorResponse, 0, len(ve))
	for _, fe := range ve {
		trans = append(trans, &ErrorResponse{
			Field:     fe.Namespace(),
			Violation: fe.Tag(),
			Message:   fe.Translate(translator),
		})
	}
	return trans
}

func violations(err error) *vzerr.VizError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return vzerr.ErrInvalidReq.Msg("invalid request: %s", err)
	}

	trans := translate(ve)
	messages := make([]string, 0, len(trans))
	for _, t := range trans {
		messages = append(messages, t.Message)
	}

	e := vzerr.NewInvalidViolations(trans)
	e.Message = strings.Join(messages, "; ")
	return e
}

// ValidStruct validates dest against its `validate` tags.
func ValidStruct(dest any) error {
	if err := Validate.Struct(dest); err != nil {
		return violations(err)
	}
	return nil
}

// ValidQuery parses the query string into dest with fiber#QueryParser and
// validates it. dest must be a pointer.
func ValidQuery(ctx *fiber.Ctx, dest any) error {
	if err := ctx.QueryParser(dest); err != nil {
		return vzerr.ErrInvalidReq.Msg("invalid query: %s", err)
	}
	return ValidStruct(dest)
}
