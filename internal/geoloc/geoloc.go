// Package geoloc wraps the platform location capability behind a
// request/result/error state machine with session-scoped permission
// memory, so the UI can offer "near me" behavior without re-prompting a
// user who already declined.
package geoloc

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"cyclemap.dev/internal/metrics"
)

// ErrorKind classifies a failed location request.
type ErrorKind string

const (
	ErrPermissionDenied    ErrorKind = "permission_denied"
	ErrPositionUnavailable ErrorKind = "position_unavailable"
	ErrTimeout             ErrorKind = "timeout"
	ErrNotSupported        ErrorKind = "not_supported"
)

// ErrorMessages maps each error kind to its fixed user-facing message.
var ErrorMessages = map[ErrorKind]string{
	ErrPermissionDenied:    "Location access was denied. Please enable location permissions in your browser settings.",
	ErrPositionUnavailable: "Unable to determine your location. Please try again.",
	ErrTimeout:             "Location request timed out. Please try again.",
	ErrNotSupported:        "Geolocation is not supported by your browser.",
}

// DeniedSessionKey is the session-store key under which a permission
// denial is remembered for the rest of the session.
const DeniedSessionKey = "cyclemap.geolocation.denied"

// Position is a resolved device location.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}

// Options configure a single-shot position query.
type Options struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration
}

// AutoOptions are used for the silent request issued at mount when the
// platform reports an existing grant: cheap and tolerant of a cached
// position.
var AutoOptions = Options{
	EnableHighAccuracy: false,
	Timeout:            10 * time.Second,
	MaximumAge:         10 * time.Minute,
}

// ManualOptions are used when the user explicitly asks for a location
// fix: fresh and accurate.
var ManualOptions = Options{
	EnableHighAccuracy: true,
	Timeout:            15 * time.Second,
	MaximumAge:         0,
}

// PermissionState mirrors the platform permission-query result.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// Error is a typed failure returned by a Provider.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	return ErrorMessages[e.Kind]
}

// Provider is the platform location capability: a blocking single-shot
// position query plus an optional permission check that does not
// prompt. PermissionState returns an error when the platform has no
// permission-query API.
type Provider interface {
	CurrentPosition(opts Options) (Position, error)
	PermissionState() (PermissionState, error)
}

// SessionStore is the session-scoped key-value flag storage used to
// remember a denial across views within one session.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// State is the service's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateSuccess
	StateError
)

// Service runs the geolocation state machine:
//
//	Idle -> Requesting -> {Success | Error}
//
// with Success and Error both able to return to Requesting on an
// explicit retry. At most one platform request is in flight at a time;
// extra calls are dropped, not queued.
type Service struct {
	mu sync.Mutex

	provider Provider
	session  SessionStore
	logger   *slog.Logger

	state    State
	position *Position
	errKind  ErrorKind
	inFlight bool
}

// NewService creates a Service. A nil provider models a platform
// without geolocation support: every request reports not_supported.
func NewService(provider Provider, session SessionStore, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		session:  session,
		logger:   logger,
	}
}

// Start applies the mount-time auto-request rules: a denial remembered
// in the session wins outright (no prompt, no platform call); an
// existing grant triggers a silent request; an unanswered prompt state
// leaves the service idle for the user to act. A platform without a
// permission-query API falls back to requesting directly.
func (s *Service) Start() {
	if s.session != nil {
		if v, ok := s.session.Get(DeniedSessionKey); ok && v == "denied" {
			s.mu.Lock()
			s.state = StateError
			s.errKind = ErrPermissionDenied
			s.mu.Unlock()
			return
		}
	}

	if s.provider == nil {
		s.mu.Lock()
		s.state = StateError
		s.errKind = ErrNotSupported
		s.mu.Unlock()
		return
	}

	perm, err := s.provider.PermissionState()
	if err != nil {
		// No permission-query capability: request and let the
		// platform prompt if it wants to.
		s.request(AutoOptions)
		return
	}

	switch perm {
	case PermissionGranted:
		s.request(AutoOptions)
	case PermissionDenied:
		s.mu.Lock()
		s.state = StateError
		s.errKind = ErrPermissionDenied
		s.mu.Unlock()
	default:
		// Prompt state: stay idle until the user asks.
	}
}

// RequestLocation starts an explicit location request. If a request is
// already in flight the call is a no-op, guaranteeing at most one
// concurrent platform request.
func (s *Service) RequestLocation() {
	s.request(ManualOptions)
}

func (s *Service) request(opts Options) {
	if s.provider == nil {
		s.mu.Lock()
		s.state = StateError
		s.errKind = ErrNotSupported
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.state = StateRequesting
	s.errKind = ""
	s.mu.Unlock()

	go func() {
		pos, err := s.provider.CurrentPosition(opts)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.inFlight = false

		if err != nil {
			kind := classify(err)
			s.state = StateError
			s.errKind = kind
			metrics.GeolocationRequests.WithLabelValues(string(kind)).Inc()

			if kind == ErrPermissionDenied && s.session != nil {
				s.session.Set(DeniedSessionKey, "denied")
			}
			if s.logger != nil {
				s.logger.Info("geolocation request failed", "kind", string(kind))
			}
			return
		}

		s.position = &pos
		s.state = StateSuccess
		metrics.GeolocationRequests.WithLabelValues("success").Inc()
	}()
}

// ClearError transitions Error back to Idle without starting a new
// request. In any other state it does nothing.
func (s *Service) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateError {
		s.state = StateIdle
		s.errKind = ""
	}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the last successful position, if any.
func (s *Service) Position() (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position == nil {
		return Position{}, false
	}
	return *s.position, true
}

// ErrorKind returns the current error kind, or "" when not in the
// error state.
func (s *Service) ErrorKind() ErrorKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errKind
}

// ErrorMessage returns the fixed user-facing message for the current
// error, or "" when not in the error state.
func (s *Service) ErrorMessage() string {
	return ErrorMessages[s.ErrorKind()]
}

// classify maps a provider error to its kind. Unrecognized errors are
// reported as position_unavailable.
func classify(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case ErrPermissionDenied, ErrPositionUnavailable, ErrTimeout, ErrNotSupported:
			return perr.Kind
		}
	}
	return ErrPositionUnavailable
}

// MemorySessionStore is an in-memory SessionStore, used in tests and
// as the default when no platform storage is wired.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Get returns the stored value for key.
func (m *MemorySessionStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set stores value under key.
func (m *MemorySessionStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
}
