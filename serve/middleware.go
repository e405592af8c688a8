// SPDX-License-Identifier: MIT

package serve

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
)

// maxRequestWindow bounds the zstd history buffer a request may ask for. It
// matches the window of the default streaming encoder.
const maxRequestWindow = 8 << 20

// errBodyTooLarge marks a zstd request body that inflates past the limit.
var errBodyTooLarge = errors.New("decompressed request body exceeds limit")

// ZstdMiddleware inflates request bodies sent with Content-Encoding: zstd and
// compresses the response when the client accepts zstd. The inflated body is
// capped at limit bytes (fiber.DefaultBodyLimit when limit <= 0); larger
// bodies get 413.
func ZstdMiddleware(limit int, log zerolog.Logger) fiber.Handler {
	if limit <= 0 {
		limit = fiber.DefaultBodyLimit
	}

	return func(c *fiber.Ctx) error {
		if hasZstd(c.Get(fiber.HeaderContentEncoding)) {
			body, err := inflate(c.Body(), limit)
			if err != nil {
				status := fiber.StatusBadRequest
				if errors.Is(err, errBodyTooLarge) {
					status = fiber.StatusRequestEntityTooLarge
				}
				log.Warn().Err(err).Int("limit", limit).Int("compressed", len(c.Body())).Msg("zstd request rejected")
				return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
			}

			req := c.Request()
			req.SetBody(body)
			req.Header.SetContentLength(len(body))
			req.Header.Del(fiber.HeaderContentEncoding)
		}

		if err := c.Next(); err != nil {
			return err
		}
		if hasZstd(c.Get(fiber.HeaderAcceptEncoding)) {
			deflate(c, log)
		}

		return nil
	}
}

func hasZstd(header string) bool {
	return strings.Contains(strings.ToLower(header), "zstd")
}

// inflate decodes src, reading at most limit+1 bytes so a small frame cannot
// expand without bound.
func inflate(src []byte, limit int) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(src),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(maxRequestWindow))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(io.LimitReader(dec, int64(limit)+1))
	switch {
	case errors.Is(err, zstd.ErrWindowSizeExceeded):
		return nil, errBodyTooLarge
	case err != nil:
		return nil, fmt.Errorf("invalid zstd request body: %w", err)
	case len(out) > limit:
		return nil, errBodyTooLarge
	}

	return out, nil
}

// deflate replaces the response body with its zstd encoding.
func deflate(c *fiber.Ctx, log zerolog.Logger) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		log.Error().Err(err).Msg("zstd writer")
		return
	}
	defer enc.Close()

	res := c.Response()
	packed := enc.EncodeAll(res.Body(), nil)
	res.SetBodyRaw(packed)
	res.Header.SetContentLength(len(packed))
	c.Set(fiber.HeaderContentEncoding, "zstd")
	c.Set(fiber.HeaderVary, fiber.HeaderAcceptEncoding)
}

// LoggerMiddleware logs one line per request at debug level, or warn for 4xx/5xx.
func LoggerMiddleware(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		ev := log.Debug()
		if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")

		return err
	}
}
