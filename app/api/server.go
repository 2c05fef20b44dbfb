package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-relay/app/auth"
)

const credentialKey = "credential"

func NewServer(handler *Handler, guard CredentialGuard, apiAccessKey string, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	if apiAccessKey == "" {
		slog.Warn("API and task delivery endpoints disabled (API_ACCESS_KEY not set)")
		return r
	}

	r.POST("/tasks/:endpoint", authMiddleware(apiAccessKey), handler.DeliverTask)

	api := r.Group("/api")
	api.Use(authMiddleware(apiAccessKey))
	{
		api.GET("/feeds", handler.APIListFeeds)
		api.GET("/owners/:owner/feeds", handler.APIListOwnerFeeds)
		api.POST("/owners/:owner/feeds", RequireCredential(guard), handler.APIAddFeed)
		api.GET("/owners/:owner/drafts", handler.APIListOwnerDrafts)
		api.POST("/sweeps/feeds", handler.APISweepFeeds)
		api.POST("/sweeps/drafts", handler.APISweepDrafts)
	}

	return r
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireCredential admits a request only when the :owner path parameter
// resolves to exactly one credential. The credential is stored on the
// context under "credential".
func RequireCredential(guard CredentialGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.Param("owner")

		credential, err := guard.Credential(c.Request.Context(), owner)
		switch {
		case err == nil:
			c.Set(credentialKey, credential)
			c.Next()
		case errors.Is(err, auth.ErrNoCredential):
			slog.Warn("Owner missing credentials", "owner", owner)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Owner has no credential"})
		case errors.Is(err, auth.ErrAmbiguousCredential):
			slog.Error("Owner has conflicting credentials", "owner", owner)
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Owner has more than one credential"})
		default:
			slog.Error("Credential lookup failed", "owner", owner, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Credential lookup failed"})
		}
	}
}
