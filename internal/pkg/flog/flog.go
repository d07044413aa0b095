// Package flog ties a per-request zerolog logger to fiber.Ctx.
package flog

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FromFiberCtx gets the logger in the request's context.
func FromFiberCtx(c *fiber.Ctx) *zerolog.Logger {
	return log.Ctx(c.UserContext())
}

func DebugFrom(c *fiber.Ctx) *zerolog.Event {
	return FromFiberCtx(c).Debug()
}

type idKey struct{}

// IDFromFiberCtx returns the request id assigned by Inject, if any.
func IDFromFiberCtx(c *fiber.Ctx) (xid.ID, bool) {
	id, ok := c.UserContext().Value(idKey{}).(xid.ID)
	return id, ok
}

// Fields names the request attributes Inject attaches to every log line.
// An empty name leaves that attribute out.
type Fields struct {
	RequestID string
	IP        string
	Request   string
	UserAgent string
}

// Inject gives each request its own copy of base, carrying the request's
// attributes, and assigns it an id. A valid id sent by the client in
// idHeader is kept so both sides can correlate; otherwise a new one is made.
// The id is echoed back in idHeader.
func Inject(base zerolog.Logger, fields Fields, idHeader string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := xid.FromString(c.Get(idHeader))
		if err != nil {
			id = xid.New()
		}

		lc := base.With()
		if fields.RequestID != "" {
			lc = lc.Str(fields.RequestID, id.String())
		}
		if fields.IP != "" {
			lc = lc.Str(fields.IP, c.IP())
		}
		if fields.Request != "" {
			lc = lc.Str(fields.Request, c.Method()+" "+c.Path())
		}
		if fields.UserAgent != "" {
			lc = lc.Str(fields.UserAgent, c.Get(fiber.HeaderUserAgent))
		}
		l := lc.Logger()

		ctx := context.WithValue(c.UserContext(), idKey{}, id)
		c.SetUserContext(l.WithContext(ctx))
		c.Set(idHeader, id.String())
		return c.Next()
	}
}

// AccessHandler calls f with the request's duration once the rest of the
// chain has run.
func AccessHandler(f func(c *fiber.Ctx, duration time.Duration)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		f(c, time.Since(start))
		return err
	}
}
