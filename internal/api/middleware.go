package api

import "github.com/gin-gonic/gin"

const (
	actorKey     = "actor"
	unknownActor = "unknown"
)

// actorMiddleware resolves the acting user from the forwarded identity
// headers the host gateway sets, in precedence order.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := unknownActor
		for _, header := range []string{"X-Authenticated-User", "X-User", "X-Admin-User"} {
			if v := c.GetHeader(header); v != "" {
				actor = v
				break
			}
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// actor returns the resolved acting user for audit attribution.
func actor(c *gin.Context) string {
	if v, ok := c.Get(actorKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return unknownActor
}
