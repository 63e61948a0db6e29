// Package throttle wraps an LLM service with a token-bucket rate limit.
package throttle

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sefs/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultBackoff is how long calls pause after the provider reports a rate limit.
const DefaultBackoff = 30 * time.Second

// LLMService limits calls to an inner service. After a rate-limit response
// every call waits until the backoff has passed.
type LLMService struct {
	inner   driven.LLMService
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// New wraps inner with a limit of perSecond calls and a burst of one.
// A non-positive rate returns inner unchanged.
func New(inner driven.LLMService, perSecond float64) driven.LLMService {
	if inner == nil || perSecond <= 0 {
		return inner
	}
	return &LLMService{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		backoff: DefaultBackoff,
		now:     time.Now,
	}
}

// Generate waits for a token, then delegates.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	out, err := s.inner.Generate(ctx, prompt, opts)
	if err != nil && isRateLimited(err) {
		s.mu.Lock()
		s.retryAt = s.now().Add(s.backoff)
		s.mu.Unlock()
	}
	return out, err
}

func (s *LLMService) wait(ctx context.Context) error {
	s.mu.Lock()
	delay := s.retryAt.Sub(s.now())
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return s.limiter.Wait(ctx)
}

// isRateLimited recognises the 429 responses of the supported providers.
func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "status 429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit")
}

// ModelName returns the inner model name.
func (s *LLMService) ModelName() string { return s.inner.ModelName() }

// Ping delegates without consuming a token.
func (s *LLMService) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the inner service.
func (s *LLMService) Close() error { return s.inner.Close() }
