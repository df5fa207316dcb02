package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-scheduler/pkg/logging"
)

const (
	ContextKeyActor = "actor"

	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"

	// SystemUserID attributes requests that carry no user header
	SystemUserID = "system"
)

// Actor identifies who performed a request, for audit attribution
type Actor struct {
	UserID    string
	UserEmail string
	UserAgent string
	IPAddress string
}

// ActorExtractor reads the caller identity from headers. Authentication happens upstream.
func ActorExtractor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor{
			UserID:    c.GetHeader(HeaderUserID),
			UserEmail: c.GetHeader(HeaderUserEmail),
			UserAgent: c.Request.UserAgent(),
			IPAddress: c.ClientIP(),
		}
		if actor.UserID == "" {
			actor.UserID = SystemUserID
		}

		c.Set(ContextKeyActor, actor)
		c.Request = c.Request.WithContext(logging.ContextWithUserID(c.Request.Context(), actor.UserID))
		c.Next()
	}
}

// GetActor returns the actor stored by ActorExtractor, or the system actor
func GetActor(c *gin.Context) Actor {
	if v, ok := c.Get(ContextKeyActor); ok {
		if actor, ok := v.(Actor); ok {
			return actor
		}
	}
	return Actor{
		UserID:    SystemUserID,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}
