package camera

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/apperror"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateActive     State = "active"
	StateError      State = "error"
)

// ErrorReason classifies why acquisition failed.
type ErrorReason string

const (
	ReasonNone             ErrorReason = ""
	ReasonPermissionDenied ErrorReason = "permission_denied"
	ReasonDeviceNotFound   ErrorReason = "device_not_found"
	ReasonUnknown          ErrorReason = "unknown"
)

var (
	ErrNotActive = apperror.New(
		apperror.CodeInvalidState,
		"camera session is not active",
		http.StatusConflict,
	)
	ErrAlreadyStarted = apperror.New(
		apperror.CodeInvalidState,
		"camera session already started",
		http.StatusConflict,
	)
)

// Session owns the device handle for its lifetime. One session holds
// the device at a time; Stop releases it from any state and is safe to
// call repeatedly.
type Session struct {
	mu      sync.Mutex
	device  Device
	configs []Config
	state   State
	reason  ErrorReason
	handle  Handle
	logger  *zap.Logger
}

func NewSession(device Device, configs []Config, logger ...*zap.Logger) *Session {
	l := zap.L().Named("camera.session")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("camera.session")
	}
	if len(configs) == 0 {
		configs = DefaultFallbackConfigs
	}
	return &Session{
		device:  device,
		configs: configs,
		state:   StateIdle,
		logger:  l,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ErrorReason() ErrorReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Start requests the device, walking the fallback configurations in
// order. A failed start leaves the session in the error state; calling
// Start again retries the full sequence.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateActive || s.state == StateRequesting {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateRequesting
	s.reason = ReasonNone
	s.mu.Unlock()

	var lastErr error
	for _, cfg := range s.configs {
		handle, err := s.device.Acquire(ctx, cfg)
		if err == nil {
			s.mu.Lock()
			s.handle = handle
			s.state = StateActive
			s.mu.Unlock()
			s.logger.Info("camera acquired", zap.String("config", cfg.Name))
			return nil
		}
		lastErr = err
		s.logger.Warn("camera config rejected",
			zap.String("config", cfg.Name), zap.Error(err))

		// permission denial will not change with a smaller resolution
		if errors.Is(err, ErrPermissionDenied) {
			break
		}
	}

	reason := classify(lastErr)
	s.mu.Lock()
	s.state = StateError
	s.reason = reason
	s.handle = nil
	s.mu.Unlock()

	return apperror.Wrap(lastErr,
		apperror.CodeCameraUnavailable,
		"camera could not be acquired: "+string(reason),
		http.StatusServiceUnavailable,
	)
}

// CaptureFrame takes a still snapshot. Valid only while active.
func (s *Session) CaptureFrame() (Frame, error) {
	s.mu.Lock()
	if s.state != StateActive || s.handle == nil {
		s.mu.Unlock()
		return Frame{}, ErrNotActive
	}
	handle := s.handle
	s.mu.Unlock()

	frame, err := handle.Capture()
	if err != nil {
		return Frame{}, apperror.Wrap(err,
			apperror.CodeCameraUnavailable,
			"frame capture failed",
			http.StatusServiceUnavailable,
		)
	}
	return frame, nil
}

// Stop releases the device and returns to idle. Idempotent; every exit
// path out of a punch session must land here.
func (s *Session) Stop() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.state = StateIdle
	s.reason = ReasonNone
	s.mu.Unlock()

	if handle != nil {
		handle.Release()
		s.logger.Info("camera released")
	}
}

func classify(err error) ErrorReason {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ReasonPermissionDenied
	case errors.Is(err, ErrDeviceNotFound):
		return ReasonDeviceNotFound
	default:
		return ReasonUnknown
	}
}
