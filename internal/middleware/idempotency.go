package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// replayedResponse stores the first response seen for an idempotency key.
type replayedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body so it can be cached after the
// handler runs.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns middleware that replays the original response for
// repeated mutating requests carrying the same Idempotency-Key header.
// Booking creation and accept calls are retried by flaky mobile clients, so
// a retry must not enqueue a second request. Redis failures degrade to
// processing the request normally.
func Idempotency(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + key

		cached, err := loadReplay(ctx, redisClient, cacheKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		if cached != nil {
			c.Header("Idempotency-Replayed", "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// Server errors are retryable and must not be pinned to the key.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 500 {
			_ = storeReplay(ctx, redisClient, cacheKey, &replayedResponse{
				StatusCode:  c.Writer.Status(),
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			})
		}
	}
}

func loadReplay(ctx context.Context, client *redis.Client, key string) (*replayedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached replayedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func storeReplay(ctx context.Context, client *redis.Client, key string, response *replayedResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
