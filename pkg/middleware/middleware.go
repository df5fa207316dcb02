package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 3 * time.Second

// Config holds middleware configuration
type Config struct {
	Logger         *slog.Logger
	ServiceName    string
	TrustedProxies []string
}

// DefaultConfig returns a default middleware configuration
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:      logger,
		ServiceName: serviceName,
	}
}

// Setup installs the request chain shared by every route: recovery, request and
// correlation IDs, access logging, query sanitizing, actor extraction, the JSON
// content-type guard and the fallback error renderer
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	router.Use(Recovery(config.Logger))
	router.Use(RequestID())
	router.Use(CorrelationID())
	router.Use(Logger(config.Logger))
	router.Use(InputSanitizer())
	router.Use(ActorExtractor())
	router.Use(ContentType())
	router.Use(ErrorHandler(config.Logger))
}

// HealthCheck reports liveness only; it never touches dependencies
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	}
}

// DependencyCheck probes one dependency. A failing Optional check is reported
// but leaves the service ready.
type DependencyCheck struct {
	Check    func(ctx context.Context) error
	Optional bool
}

// ReadinessCheck runs every named dependency check. It answers 503 when a
// required check fails and "degraded" when only optional ones do.
func ReadinessCheck(serviceName string, checks map[string]DependencyCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(names))
		status, code := "ready", http.StatusOK
		for _, name := range names {
			dep := checks[name]
			err := dep.Check(ctx)
			switch {
			case err == nil:
				results[name] = "ok"
			case dep.Optional:
				results[name] = err.Error()
				if code == http.StatusOK {
					status = "degraded"
				}
			default:
				results[name] = err.Error()
				status, code = "not ready", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "service": serviceName, "checks": results})
	}
}

func routeError(status int, code, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(status, APIErrorResponse{
			Code:      code,
			Message:   message,
			RequestID: GetRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
		})
	}
}

// NoRoute answers unknown paths with the standard error body
func NoRoute() gin.HandlerFunc {
	return routeError(http.StatusNotFound, "ROUTE_NOT_FOUND", "The requested resource was not found")
}

// NoMethod answers unsupported methods with the standard error body
func NoMethod() gin.HandlerFunc {
	return routeError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource")
}
