package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tazhate/workoutplanner/internal/log"
	"github.com/tazhate/workoutplanner/internal/observability"
)

const (
	ContextUserIDKey    = "userID"
	ContextRequestIDKey = "requestID"

	RequestIDHeader = "X-Request-ID"
)

// TokenParser validates a bearer token and returns the user id.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// RequestID tags every request with an id, reusing the caller's
// X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request and counts it.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		observability.RecordHTTPRequest(route, strconv.Itoa(status))

		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", c.GetString(ContextRequestIDKey),
		}
		if status >= http.StatusInternalServerError {
			log.Warn("request failed", kv...)
			return
		}
		log.Info("request", kv...)
	}
}

// AuthMiddleware requires a valid "Bearer <token>" Authorization header.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Token is missing")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		userID, err := tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
