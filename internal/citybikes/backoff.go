package citybikes

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	BASE_BACKOFF   = 1 * time.Second
	MAX_BACKOFF    = 2 * time.Minute
	BACKOFF_FACTOR = 2.0
	JITTER_FACTOR  = 0.5
)

type backoffData struct {
	BackoffDelay time.Duration
	NextRetryAt  time.Time
}

// BackoffStore tracks exponential retry backoff per upstream endpoint,
// so the refresh loop stops hammering the API while it is failing.
type BackoffStore struct {
	mu       sync.RWMutex
	backoffs map[string]backoffData
}

func NewBackoffStore() *BackoffStore {
	return &BackoffStore{
		backoffs: make(map[string]backoffData),
	}
}

// NextRetryAt returns the earliest time the endpoint should be retried.
// The second return is false when the endpoint is not backing off.
func (s *BackoffStore) NextRetryAt(endpoint string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if backoff, exists := s.backoffs[endpoint]; exists {
		return backoff.NextRetryAt.UTC(), true
	}
	return time.Time{}, false
}

// UpdateBackoff records a failure, doubling the delay up to MAX_BACKOFF.
func (s *BackoffStore) UpdateBackoff(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if backoff, exists := s.backoffs[endpoint]; exists {
		backoff.BackoffDelay = calculateNewBackoffDelay(backoff.BackoffDelay)
		backoff.NextRetryAt = calculateNextRetryAt(backoff.BackoffDelay)
		s.backoffs[endpoint] = backoff
	} else {
		s.backoffs[endpoint] = backoffData{
			BackoffDelay: BASE_BACKOFF,
			NextRetryAt:  calculateNextRetryAt(BASE_BACKOFF),
		}
	}
}

// ResetBackoff clears the backoff state after a success.
func (s *BackoffStore) ResetBackoff(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.backoffs, endpoint)
}

func calculateNextRetryAt(backoff time.Duration) time.Time {
	jitter := time.Duration(rand.Float64() * float64(backoff) * JITTER_FACTOR)
	backoff += jitter
	if backoff > MAX_BACKOFF {
		backoff = MAX_BACKOFF
	}
	return time.Now().Add(backoff).UTC()
}

func calculateNewBackoffDelay(backoffDelay time.Duration) time.Duration {
	backoffDelay *= BACKOFF_FACTOR
	if backoffDelay >= MAX_BACKOFF {
		backoffDelay = MAX_BACKOFF
	}
	return backoffDelay
}
