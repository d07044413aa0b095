package cachectrl

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// OptIn lets shared caches keep the response for maxAge, counted from
// lastModified.
func OptIn(ctx *fiber.Ctx, lastModified time.Time, maxAge time.Duration) {
	ctx.Set(fiber.HeaderCacheControl, "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
	ctx.Set(fiber.HeaderExpires, lastModified.Add(maxAge).UTC().Format(time.RFC1123))

	ctx.Response().Header.SetLastModified(lastModified)
}

// OptOut marks the response as never cacheable. Used for anything that
// reflects the upload history, which changes on every accepted upload.
func OptOut(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	ctx.Set(fiber.HeaderPragma, "no-cache")
	ctx.Set(fiber.HeaderExpires, "0")
}
