package transfer

import (
	"dragonmasher/internal/core/types"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// DefaultRateBurst caps a single limited read or write.
const DefaultRateBurst = 64 * humanize.KiByte

// NewRateLimiter returns a limiter for limit bytes per second.
// A zero limit means unlimited.
func NewRateLimiter(limit types.Bytes) *rate.Limiter {
	if limit == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	burst := min(int(limit.Int64()), DefaultRateBurst)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limit.Int64()), burst)
}
