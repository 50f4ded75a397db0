package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader carries the operator identity recorded on every mutation
	ActorHeader = "X-User-ID"

	// ActorKey is the key used to store the actor in the context
	ActorKey = "actor"

	// AnonymousActor is used when no identity header was sent
	AnonymousActor = "anonymous"
)

// Identity middleware resolves who performs the request. Every posted
// transaction, day open/close and settlement is stamped with this value.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			actor = AnonymousActor
		}

		c.Set(ActorKey, actor)

		c.Next()
	}
}

// GetActor retrieves the actor from the gin context if present
func GetActor(c *gin.Context) string {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(string); ok {
			return actor
		}
	}
	return AnonymousActor
}
