package objectstore

import (
	"context"
	"errors"

	"github.com/akeren/archive-waitlist/pkg/circuitbreaker"
)

// GuardedStore fails fast while the wrapped backend keeps erroring. Every
// call is still a single attempt. Key errors are the caller's fault and never
// move the breaker.
type GuardedStore struct {
	inner   Store
	breaker circuitbreaker.CircuitBreaker
}

func NewGuardedStore(inner Store, breaker circuitbreaker.CircuitBreaker) *GuardedStore {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}
	return &GuardedStore{inner: inner, breaker: breaker}
}

func (g *GuardedStore) Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var result *PutResult

	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var putErr error
		result, putErr = g.inner.Put(ctx, key, data, contentType)
		return unaccountedKeyError(putErr)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (g *GuardedStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	return g.breaker.Call(ctx, func(ctx context.Context) error {
		return unaccountedKeyError(g.inner.Delete(ctx, key))
	})
}

func unaccountedKeyError(err error) error {
	if errors.Is(err, ErrInvalidKey) {
		return circuitbreaker.Unaccounted(err)
	}
	return err
}

// Ping bypasses the breaker so health checks see the backend's real state.
func (g *GuardedStore) Ping(ctx context.Context) error {
	return g.inner.Ping(ctx)
}

func (g *GuardedStore) BreakerState() circuitbreaker.CircuitState {
	return g.breaker.State()
}
