// ratelimit.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limita por IP: 300 requests cada 15 minutos sobre /api.
func RateLimit() gin.HandlerFunc {
	rate := limiter.Rate{
		Period: 15 * time.Minute,
		Limit:  300,
	}
	store := memory.NewStore()
	return mgin.NewMiddleware(limiter.New(store, rate))
}
