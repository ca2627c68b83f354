package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/apperror"
	appctx "medstore/internal/core/context"
	"medstore/internal/infrastructure/cache"
	"medstore/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	keyIdempotencyKey   = "idempotency_key"
	keyIdempotencyStore = "idempotency_store"
	keyIdempotencyDone  = "idempotency_done"
)

// IdempotencyStore is implemented by cache.IdempotencyStore.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*cache.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

// Idempotency middleware protects against duplicate requests.
// Used for POST/PUT/PATCH operations that should be idempotent.
// Only successful responses are remembered; any other outcome releases the key.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.Request.URL.Path
		ctx := c.Request.Context()

		replay, err := store.AcquireKey(ctx, key, appctx.GetUserID(ctx), operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(keyIdempotencyKey, key)
		c.Set(keyIdempotencyStore, store)

		c.Next()

		if !c.GetBool(keyIdempotencyDone) {
			if err := store.ReleaseKey(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn(ctx, "failed to release idempotency key", "key", key, "error", err)
			}
		}
	}
}

// CompleteIdempotency stores a successful response for replay under the request's key.
// It is a no-op for requests without a key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	key := c.GetString(keyIdempotencyKey)
	if key == "" || statusCode < 200 || statusCode >= 300 {
		return
	}
	v, _ := c.Get(keyIdempotencyStore)
	store, ok := v.(IdempotencyStore)
	if !ok || store == nil {
		return
	}

	ctx := c.Request.Context()
	if err := store.CompleteKey(context.WithoutCancel(ctx), key, statusCode, contentType, body); err != nil {
		logger.Warn(ctx, "failed to complete idempotency key", "key", key, "error", err)
		return
	}
	c.Set(keyIdempotencyDone, true)
}
