package citybikes

import (
	"testing"
	"time"
)

func TestBackoffStoreUnknownEndpoint(t *testing.T) {
	s := NewBackoffStore()

	if _, ok := s.NextRetryAt("networks"); ok {
		t.Error("expected no backoff for an endpoint that never failed")
	}
}

func TestBackoffStoreFirstFailure(t *testing.T) {
	s := NewBackoffStore()

	before := time.Now().UTC()
	s.UpdateBackoff("networks")

	next, ok := s.NextRetryAt("networks")
	if !ok {
		t.Fatal("expected a backoff after a failure")
	}
	if next.Before(before.Add(BASE_BACKOFF)) {
		t.Errorf("next retry %v should be at least %v after the failure", next, BASE_BACKOFF)
	}
	// Base delay plus full jitter.
	max := before.Add(BASE_BACKOFF + time.Duration(float64(BASE_BACKOFF)*JITTER_FACTOR) + time.Second)
	if next.After(max) {
		t.Errorf("next retry %v exceeds the jittered base delay bound %v", next, max)
	}
}

func TestBackoffStoreDelayGrowsAndCaps(t *testing.T) {
	s := NewBackoffStore()

	for i := 0; i < 20; i++ {
		s.UpdateBackoff("networks")
	}

	next, ok := s.NextRetryAt("networks")
	if !ok {
		t.Fatal("expected a backoff")
	}
	if next.After(time.Now().UTC().Add(MAX_BACKOFF + time.Second)) {
		t.Errorf("backoff must cap at %v, next retry is %v away", MAX_BACKOFF, time.Until(next))
	}
}

func TestBackoffStoreReset(t *testing.T) {
	s := NewBackoffStore()

	s.UpdateBackoff("networks")
	s.ResetBackoff("networks")

	if _, ok := s.NextRetryAt("networks"); ok {
		t.Error("expected reset to clear the backoff")
	}
}

func TestBackoffStoreIsPerEndpoint(t *testing.T) {
	s := NewBackoffStore()

	s.UpdateBackoff("networks")
	if _, ok := s.NextRetryAt("network_detail"); ok {
		t.Error("backoff for one endpoint must not leak to another")
	}
}
