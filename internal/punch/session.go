package punch

import (
	"context"
	"sync"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/camera"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/directory"
	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/recognition"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory is the read-only slice of the employee directory this
// pipeline consumes.
type Directory interface {
	ListActiveEmployees(ctx context.Context, companyID, branchID string) ([]directory.Employee, error)
	GetBranchName(ctx context.Context, companyID, branchID string) (string, error)
}

// SessionContext identifies where a punch session is happening.
type SessionContext struct {
	CompanyID  string
	BranchID   string
	TerminalID string
}

//go:generate mockgen -source=session.go -destination=mock/session_service_mock.go -package=mock
type Service interface {
	Suggest(now time.Time) SuggestionResponse
	StartSession(ctx context.Context, sessCtx SessionContext, req StartSessionRequest) (SessionResponse, error)
	Capture(ctx context.Context, companyID, sessionID string) (AttemptResponse, error)
	Confirm(ctx context.Context, companyID, sessionID string) (RecordResponse, error)
	Reject(ctx context.Context, companyID, sessionID string) (SessionResponse, error)
	StopSession(ctx context.Context, companyID, sessionID string) error
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool, page, pageSize int) ([]RecordResponse, int64, error)
}

// session is one live punch flow: an exclusive camera claim, the
// operator's punch type selection, and at most one attempt in the
// confirmation gate.
type session struct {
	id        string
	companyID string
	branchID  string
	terminal  string
	punchType Type
	cam       *camera.Session
	gate      *ConfirmationGate

	mu         sync.Mutex
	stopped    bool
	evaluating bool // single-flight: one evaluation outstanding
	evalCancel context.CancelFunc
	autoTimer  *time.Timer
}

type service struct {
	dir      Directory
	engine   *recognition.Engine
	recorder Recorder
	notifier *Notifier
	repo     Repository
	// newCamera builds a fresh camera session per punch session so the
	// device handle lifetime matches the session lifetime.
	newCamera func() *camera.Session

	mu         sync.Mutex
	sessions   map[string]*session
	byTerminal map[string]string

	logger *zap.Logger
}

func NewService(
	dir Directory,
	engine *recognition.Engine,
	rec Recorder,
	notifier *Notifier,
	repo Repository,
	newCamera func() *camera.Session,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("punch.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("punch.service")
	}
	return &service{
		dir:        dir,
		engine:     engine,
		recorder:   rec,
		notifier:   notifier,
		repo:       repo,
		newCamera:  newCamera,
		sessions:   make(map[string]*session),
		byTerminal: make(map[string]string),
		logger:     l,
	}
}

func (s *service) Suggest(now time.Time) SuggestionResponse {
	t := SuggestType(now)
	return SuggestionResponse{PunchType: string(t), Label: t.Label()}
}

func (s *service) StartSession(ctx context.Context, sessCtx SessionContext, req StartSessionRequest) (SessionResponse, error) {
	// the suggestion is advisory; starting always takes an explicit
	// operator selection
	punchType, err := SelectType(req.PunchType)
	if err != nil {
		return SessionResponse{}, err
	}

	// the camera is exclusive per terminal: a stale session is torn
	// down (device released) before a new one starts
	s.mu.Lock()
	if oldID, ok := s.byTerminal[sessCtx.TerminalID]; ok {
		if old, ok := s.sessions[oldID]; ok {
			s.teardownLocked(old)
		}
	}
	s.mu.Unlock()

	cam := s.newCamera()
	if err := cam.Start(ctx); err != nil {
		s.logger.Warn("camera start failed",
			zap.String("terminal_id", sessCtx.TerminalID),
			zap.String("reason", string(cam.ErrorReason())),
			zap.Error(err),
		)
		return SessionResponse{}, err
	}

	sess := &session{
		id:        uuid.New().String(),
		companyID: sessCtx.CompanyID,
		branchID:  sessCtx.BranchID,
		terminal:  sessCtx.TerminalID,
		punchType: punchType,
		cam:       cam,
		gate:      NewConfirmationGate(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.byTerminal[sess.terminal] = sess.id
	s.mu.Unlock()

	if req.AutoCaptureSeconds > 0 {
		s.armAutoCapture(sess, time.Duration(req.AutoCaptureSeconds)*time.Second)
	}

	s.logger.Info("punch session started",
		zap.String("session_id", sess.id),
		zap.String("terminal_id", sess.terminal),
		zap.String("punch_type", string(punchType)),
	)
	return s.sessionResponse(sess), nil
}

// armAutoCapture schedules the hands-free capture as a cancellable
// delayed task. Stopping the session mid-countdown must never fire a
// stale capture.
func (s *service) armAutoCapture(sess *session, d time.Duration) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.stopped {
		return
	}
	sess.autoTimer = time.AfterFunc(d, func() {
		sess.mu.Lock()
		stopped := sess.stopped
		sess.mu.Unlock()
		if stopped {
			return
		}
		if _, err := s.Capture(context.Background(), sess.companyID, sess.id); err != nil {
			s.logger.Info("auto-capture did not produce a pending attempt",
				zap.String("session_id", sess.id), zap.Error(err))
		}
	})
}

func (s *service) Capture(ctx context.Context, companyID, sessionID string) (AttemptResponse, error) {
	sess, err := s.lookup(companyID, sessionID)
	if err != nil {
		return AttemptResponse{}, err
	}

	sess.mu.Lock()
	if sess.stopped {
		sess.mu.Unlock()
		return AttemptResponse{}, puncherrors.ErrSessionNotFound
	}
	if _, pending := sess.gate.Pending(); pending {
		sess.mu.Unlock()
		return AttemptResponse{}, puncherrors.ErrAttemptPending
	}
	if sess.evaluating {
		sess.mu.Unlock()
		return AttemptResponse{}, puncherrors.ErrEvaluationInFlight
	}
	sess.evaluating = true
	evalCtx, cancel := context.WithCancel(ctx)
	sess.evalCancel = cancel
	sess.mu.Unlock()

	defer func() {
		cancel()
		sess.mu.Lock()
		sess.evaluating = false
		sess.evalCancel = nil
		sess.mu.Unlock()
	}()

	frame, err := sess.cam.CaptureFrame()
	if err != nil {
		return AttemptResponse{}, err
	}

	pool, err := s.dir.ListActiveEmployees(evalCtx, sess.companyID, sess.branchID)
	if err != nil {
		return AttemptResponse{}, err
	}

	attempt, err := s.engine.Evaluate(evalCtx, frame, pool)
	if err != nil {
		// cancellation means the session was stopped (or the operator
		// navigated away) while the evaluation was outstanding; the
		// result is discarded and the gate untouched
		if evalCtx.Err() != nil {
			return AttemptResponse{}, puncherrors.ErrSessionNotFound
		}
		return AttemptResponse{}, err
	}

	sess.mu.Lock()
	stopped := sess.stopped
	sess.mu.Unlock()
	if stopped {
		return AttemptResponse{}, puncherrors.ErrSessionNotFound
	}

	switch attempt.Outcome {
	case recognition.OutcomeSuccess:
		if err := sess.gate.Offer(attempt); err != nil {
			return AttemptResponse{}, err
		}
		return AttemptResponse{
			Outcome:      string(attempt.Outcome),
			EmployeeID:   attempt.Employee.ID.String(),
			EmployeeName: attempt.Employee.FullName,
			Confidence:   attempt.Confidence,
			FrameRef:     attempt.Frame.ID,
		}, nil
	case recognition.OutcomeLowConfidence:
		// raw score travels back for diagnostics, no employee does
		return AttemptResponse{
			Outcome:    string(attempt.Outcome),
			Confidence: attempt.RawScore,
			FrameRef:   attempt.Frame.ID,
		}, puncherrors.ErrLowConfidence
	default:
		return AttemptResponse{
			Outcome:  string(attempt.Outcome),
			FrameRef: attempt.Frame.ID,
		}, puncherrors.ErrNoMatch
	}
}

func (s *service) Confirm(ctx context.Context, companyID, sessionID string) (RecordResponse, error) {
	sess, err := s.lookup(companyID, sessionID)
	if err != nil {
		return RecordResponse{}, err
	}

	attempt, err := sess.gate.Confirm()
	if err != nil {
		return RecordResponse{}, err
	}

	branchName, err := s.dir.GetBranchName(ctx, sess.companyID, sess.branchID)
	if err != nil {
		s.logger.Warn("branch name lookup failed, receipt will omit it",
			zap.String("branch_id", sess.branchID), zap.Error(err))
		branchName = ""
	}

	rec, err := s.recorder.Record(ctx, attempt, sess.punchType, RecordMeta{
		CompanyID:  sess.companyID,
		BranchID:   sess.branchID,
		BranchName: branchName,
		TerminalID: sess.terminal,
	})
	if err != nil {
		// the gate stays consumed: one pending attempt yields at most
		// one record, and the operator restarts explicitly after a
		// persistence failure
		return RecordResponse{}, err
	}

	// punch done: release the device before notifying
	s.removeSession(sess)

	receipt := s.notifier.Notify(rec, attempt.Employee.FullName, branchName)

	resp := mapRecordToResponse(rec)
	resp.EmployeeName = attempt.Employee.FullName
	resp.ReceiptText = receipt.Text
	return resp, nil
}

func (s *service) Reject(ctx context.Context, companyID, sessionID string) (SessionResponse, error) {
	sess, err := s.lookup(companyID, sessionID)
	if err != nil {
		return SessionResponse{}, err
	}

	if err := sess.gate.Reject(); err != nil {
		return SessionResponse{}, err
	}

	// camera stayed active; the operator may recapture with the same
	// or a newly selected punch type
	s.logger.Info("attempt rejected", zap.String("session_id", sess.id))
	return s.sessionResponse(sess), nil
}

// StopSession tears the session down from any state. Safe to repeat:
// stopping an unknown session is a no-op.
func (s *service) StopSession(ctx context.Context, companyID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.companyID != companyID {
		return nil
	}
	s.teardownLocked(sess)
	return nil
}

// GetAll pages at the database, not in memory: the history table grows
// with every punch and is never pruned.
func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool, page, pageSize int) ([]RecordResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	var (
		rows  []Record
		total int64
		err   error
	)
	if canReadAll {
		rows, total, err = s.repo.FindAllByCompany(ctx, companyID, pageSize, offset)
	} else {
		if _, parseErr := uuid.Parse(actorID); parseErr != nil {
			return nil, 0, puncherrors.ErrSessionNotFound
		}
		rows, total, err = s.repo.FindAllByCompanyAndEmployee(ctx, companyID, actorID, pageSize, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	res := make([]RecordResponse, len(rows))
	for i, r := range rows {
		res[i] = mapRecordToResponse(r)
	}
	return res, total, nil
}

func (s *service) lookup(companyID, sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.companyID != companyID {
		return nil, puncherrors.ErrSessionNotFound
	}
	return sess, nil
}

// teardownLocked cancels outstanding work and releases the camera.
// Caller holds s.mu.
func (s *service) teardownLocked(sess *session) {
	sess.mu.Lock()
	sess.stopped = true
	if sess.evalCancel != nil {
		sess.evalCancel()
	}
	if sess.autoTimer != nil {
		sess.autoTimer.Stop()
		sess.autoTimer = nil
	}
	sess.mu.Unlock()

	sess.cam.Stop()
	delete(s.sessions, sess.id)
	if s.byTerminal[sess.terminal] == sess.id {
		delete(s.byTerminal, sess.terminal)
	}
	s.logger.Info("punch session stopped", zap.String("session_id", sess.id))
}

func (s *service) removeSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked(sess)
}

func (s *service) sessionResponse(sess *session) SessionResponse {
	return SessionResponse{
		SessionID:   sess.id,
		PunchType:   string(sess.punchType),
		CameraState: string(sess.cam.State()),
		GateState:   string(sess.gate.State()),
	}
}

func mapRecordToResponse(r Record) RecordResponse {
	resp := RecordResponse{
		ID:            r.ID.String(),
		CompanyID:     r.CompanyID.String(),
		BranchID:      r.BranchID.String(),
		EmployeeID:    r.EmployeeID.String(),
		PunchType:     r.PunchType,
		PunchLabel:    Type(r.PunchType).Label(),
		Confidence:    r.Confidence,
		ConfidencePct: ConfidencePercent(r.Confidence),
		FrameRef:      r.FrameRef,
		Confirmed:     r.Confirmed,
		TerminalID:    r.TerminalID,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.Employee != nil {
		resp.EmployeeName = r.Employee.FullName
	}
	return resp
}
