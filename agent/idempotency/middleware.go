package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Middleware replays the stored response for a repeated Idempotency-Key on
// POST, PUT and PATCH, and stores fresh 2xx JSON responses.
func Middleware(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || !isIdempotentMethod(c.Request.Method) {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(HeaderKey))
		if key == "" {
			c.Next()
			return
		}
		if err := ValidateKey(key); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		logger := log.Ctx(ctx).With().Str("idempotency_key", key).Logger()

		entry, err := store.Load(ctx, key)
		switch {
		case err == nil:
			logger.Info().Int("status", entry.StatusCode).Msg("returning stored response for idempotency key")
			c.Header(HeaderReplayed, "true")
			c.Data(entry.StatusCode, "application/json; charset=utf-8", entry.Body)
			c.Abort()
			return
		case !errors.Is(err, ErrEntryNotFound):
			logger.Warn().Err(err).Msg("idempotency lookup failed, processing request")
			c.Next()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices || rec.overflow {
			return
		}
		body := rec.buf.Bytes()
		if !json.Valid(body) {
			return
		}

		err = store.Save(context.WithoutCancel(ctx), &Entry{
			Key:        key,
			StatusCode: status,
			Body:       append(json.RawMessage(nil), body...),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("store idempotency entry failed")
			return
		}
		logger.Debug().Msg("stored response for idempotency key")
	}
}

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

type recordingWriter struct {
	gin.ResponseWriter
	buf      bytes.Buffer
	overflow bool
}

func (w *recordingWriter) capture(b []byte) {
	if w.overflow {
		return
	}
	if w.buf.Len()+len(b) > maxStoredBytes {
		w.overflow = true
		w.buf.Reset()
		return
	}
	w.buf.Write(b)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.capture(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}
