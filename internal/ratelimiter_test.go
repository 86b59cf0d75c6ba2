package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterCapsBurst(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		req.True(limiter.Allow("s1"))
	}
	req.False(limiter.Allow("s1"))

	// keys are independent
	req.True(limiter.Allow("s2"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(2, 50*time.Millisecond)

	req.True(limiter.Allow("s1"))
	req.True(limiter.Allow("s1"))
	req.False(limiter.Allow("s1"))

	time.Sleep(60 * time.Millisecond)
	req.True(limiter.Allow("s1"))
}

func TestForgetResetsKey(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(1, time.Minute)

	req.True(limiter.Allow("s1"))
	req.False(limiter.Allow("s1"))

	limiter.Forget("s1")
	req.True(limiter.Allow("s1"))
}
