package middlewares

import (
	"fmt"
	"io"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/pkg/rekuest"
	"equipviz.dev/backend/internal/pkg/vzerr"
)

// Locker serializes uploads sharing an Idempotency-Key.
type Locker interface {
	Acquire(key string) (release func(), err error)
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

// RedsyncLocker backs Locker with a redsync mutex, so uploads are serialized
// across every replica sharing the Redis.
func RedsyncLocker(rs *redsync.Redsync) Locker {
	return redsyncLocker{rs: rs}
}

func (l redsyncLocker) Acquire(key string) (func(), error) {
	mutex := l.rs.NewMutex("mutex:upload-replay:"+key,
		redsync.WithExpiry(time.Minute),
		redsync.WithTries(5),
		redsync.WithRetryDelay(250*time.Millisecond))
	if err := mutex.Lock(); err != nil {
		return nil, err
	}
	return func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Warn().
				Err(err).
				Str("evt.name", "http.upload_replay.unlock_failed").
				Str("key", key).
				Msg("failed to release upload replay lock")
		}
	}, nil
}

type ReplayConfig struct {
	// Lifetime bounds how long a stored upload response is replayed.
	// Defaults to constant.DefaultIdempotencyLifetime.
	Lifetime time.Duration

	Storage fiber.Storage

	// Locker is optional. Without it concurrent uploads with one key may
	// both reach the handler.
	Locker Locker
}

// storedUpload is what a replay needs to answer a retried upload. Fingerprint
// identifies the file the key was first used with.
type storedUpload struct {
	Fingerprint uint64 `msgpack:"f"`
	Status      int    `msgpack:"s"`
	ContentType string `msgpack:"t"`
	Body        []byte `msgpack:"b"`
}

// ReplayUploads makes upload retries safe. The first successful response for
// an Idempotency-Key is stored and sent back for every later upload of the
// same file under that key, without the handler running again. Reusing a key
// for a different file is a conflict. Failed uploads are not stored.
func ReplayUploads(config ReplayConfig) fiber.Handler {
	if config.Lifetime <= 0 {
		config.Lifetime = constant.DefaultIdempotencyLifetime
	}
	keyRule := fmt.Sprintf("max=%d,alphanum", constant.IdempotencyKeyLengthLimit)

	return func(c *fiber.Ctx) error {
		key := c.Get(constant.IdempotencyKeyHeader)
		if key == "" {
			return c.Next()
		}
		if err := rekuest.Validate.Var(key, keyRule); err != nil {
			return vzerr.ErrInvalidReq.Msg("%s must be alphanumeric and at most %d characters", constant.IdempotencyKeyHeader, constant.IdempotencyKeyLengthLimit)
		}

		fingerprint, err := uploadFingerprint(c)
		if err != nil {
			return vzerr.ErrMalformedInput.Wrap(err)
		}

		if done, err := replayStored(c, config.Storage, key, fingerprint); done {
			return err
		}

		if config.Locker != nil {
			release, err := config.Locker.Acquire(key)
			if err != nil {
				log.Warn().
					Err(err).
					Str("evt.name", "http.upload_replay.lock_failed").
					Str("key", key).
					Msg("upload with this key is still in flight")
				return vzerr.ErrTooManyRequests.Msg("an upload with this %s is still in progress", constant.IdempotencyKeyHeader)
			}
			defer release()

			// the holder we waited on may have stored a response
			if done, err := replayStored(c, config.Storage, key, fingerprint); done {
				return err
			}
		}

		if err := c.Next(); err != nil {
			return err
		}
		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			return nil
		}

		b, err := msgpack.Marshal(storedUpload{
			Fingerprint: fingerprint,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err == nil {
			err = config.Storage.Set(key, b, config.Lifetime)
		}
		if err != nil {
			// the upload itself succeeded; a retry will simply run again
			log.Error().
				Err(err).
				Str("evt.name", "http.upload_replay.store_failed").
				Str("key", key).
				Msg("failed to store upload response for replay")
			return nil
		}

		c.Set(constant.IdempotencyHeader, "stored")
		return nil
	}
}

// uploadFingerprint hashes the uploaded file, or the raw body when the
// request carries no file part. Multipart boundaries differ between retries,
// so the file content is what identifies an upload.
func uploadFingerprint(c *fiber.Ctx) (uint64, error) {
	fh, err := c.FormFile(constant.UploadFormField)
	if err != nil {
		return xxh3.Hash(c.Body()), nil
	}
	f, err := fh.Open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func replayStored(c *fiber.Ctx, storage fiber.Storage, key string, fingerprint uint64) (bool, error) {
	b, err := storage.Get(key)
	if err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "http.upload_replay.lookup_failed").
			Str("key", key).
			Msg("failed to look up stored upload response")
		return false, nil
	}
	if b == nil {
		return false, nil
	}

	var stored storedUpload
	if err := msgpack.Unmarshal(b, &stored); err != nil {
		return true, vzerr.ErrInternalError.Wrap(err)
	}
	if stored.Fingerprint != fingerprint {
		return true, vzerr.ErrIdempotencyConflict
	}

	log.Debug().
		Str("evt.name", "http.upload_replay.replayed").
		Str("key", key).
		Msg("replaying stored upload response")

	c.Set(constant.IdempotencyHeader, "replayed")
	if stored.ContentType != "" {
		c.Set(fiber.HeaderContentType, stored.ContentType)
	}
	return true, c.Status(stored.Status).Send(stored.Body)
}
