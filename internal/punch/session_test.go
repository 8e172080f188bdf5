package punch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/camera"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/directory"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/events"
	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/recognition"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeDirectory struct {
	pool       []directory.Employee
	branchName string
	listErr    error
}

func (f *fakeDirectory) ListActiveEmployees(ctx context.Context, companyID, branchID string) ([]directory.Employee, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pool, nil
}

func (f *fakeDirectory) GetBranchName(ctx context.Context, companyID, branchID string) (string, error) {
	return f.branchName, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []Record
	err      error
}

func (f *fakeRecorder) Record(ctx context.Context, attempt recognition.Attempt, punchType Type, meta RecordMeta) (Record, error) {
	if f.err != nil {
		return Record{}, f.err
	}
	rec := Record{
		ID:         uuid.New(),
		CompanyID:  uuid.MustParse(meta.CompanyID),
		BranchID:   uuid.MustParse(meta.BranchID),
		EmployeeID: attempt.Employee.ID,
		PunchType:  string(punchType),
		Confidence: attempt.Confidence,
		FrameRef:   attempt.Frame.ID,
		Confirmed:  true,
		TerminalID: meta.TerminalID,
		CreatedAt:  time.Now().UTC(),
	}
	f.mu.Lock()
	f.recorded = append(f.recorded, rec)
	f.mu.Unlock()
	return rec, nil
}

type pipelineDeps struct {
	service    Service
	dir        *fakeDirectory
	recorder   *fakeRecorder
	dispatcher *events.Dispatcher
	device     *camera.SimDevice
	sessCtx    SessionContext
}

func setupPipeline(t *testing.T, strategy recognition.MatchStrategy) *pipelineDeps {
	t.Helper()

	dir := &fakeDirectory{
		pool: []directory.Employee{
			{ID: uuid.New(), FullName: "Ana Oliveira", Active: true},
		},
		branchName: "Filial Centro",
	}
	rec := &fakeRecorder{}
	dispatcher := events.NewDispatcher()
	device := &camera.SimDevice{}

	engine := recognition.NewEngine(strategy, recognition.WithMinLatency(0))
	svc := NewService(
		dir,
		engine,
		rec,
		NewNotifier(dispatcher),
		&fakeRepo{},
		func() *camera.Session { return camera.NewSession(device, nil) },
	)

	return &pipelineDeps{
		service:    svc,
		dir:        dir,
		recorder:   rec,
		dispatcher: dispatcher,
		device:     device,
		sessCtx: SessionContext{
			CompanyID:  uuid.New().String(),
			BranchID:   uuid.New().String(),
			TerminalID: "terminal-01",
		},
	}
}

func TestService_FullPunchFlow(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	ctx := context.Background()

	var published []events.PunchConfirmedEvent
	deps.dispatcher.Subscribe(events.PunchSubscriberFunc(func(e events.PunchConfirmedEvent) {
		published = append(published, e)
	}))

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)
	assert.Equal(t, string(camera.StateActive), sess.CameraState)

	attempt, err := deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, string(recognition.OutcomeSuccess), attempt.Outcome)
	assert.Equal(t, "Ana Oliveira", attempt.EmployeeName)
	assert.Equal(t, 0.92, attempt.Confidence)

	rec, err := deps.service.Confirm(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, "entry", rec.PunchType)
	assert.Equal(t, 0.92, rec.Confidence)
	assert.Equal(t, 92, rec.ConfidencePct)
	assert.Contains(t, rec.ReceiptText, "Ana Oliveira")
	assert.Contains(t, rec.ReceiptText, "92%")

	assert.Len(t, deps.recorder.recorded, 1)
	assert.Len(t, published, 1)
	assert.Equal(t, rec.ID, published[0].RecordID)

	// the session is gone once the punch is recorded
	_, err = deps.service.Confirm(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrSessionNotFound)
}

func TestService_LowConfidenceNeverReachesGate(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.40})
	ctx := context.Background()

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	attempt, err := deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrLowConfidence)
	assert.Equal(t, string(recognition.OutcomeLowConfidence), attempt.Outcome)
	assert.Empty(t, attempt.EmployeeID)
	assert.Equal(t, 0.40, attempt.Confidence)

	// nothing pending, nothing recorded
	_, err = deps.service.Confirm(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrNoPendingAttempt)
	assert.Empty(t, deps.recorder.recorded)

	// the session stays alive so the operator can recapture
	attempt2, err := deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrLowConfidence)
	assert.Equal(t, string(recognition.OutcomeLowConfidence), attempt2.Outcome)
}

func TestService_EmptyPoolIsNoMatch(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.99})
	deps.dir.pool = nil
	ctx := context.Background()

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "exit"})
	assert.NoError(t, err)

	attempt, err := deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrNoMatch)
	assert.Equal(t, string(recognition.OutcomeNoMatch), attempt.Outcome)
}

func TestService_RejectResumesSameSession(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	ctx := context.Background()

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)

	// while pending, a second capture is blocked
	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrAttemptPending)

	resumed, err := deps.service.Reject(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, string(camera.StateActive), resumed.CameraState)
	assert.Equal(t, string(GateEmpty), resumed.GateState)

	// recapture works after the rejection
	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)
	assert.Empty(t, deps.recorder.recorded)
}

func TestService_StartRequiresValidPunchType(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})

	_, err := deps.service.StartSession(context.Background(), deps.sessCtx, StartSessionRequest{PunchType: "nap"})
	assert.ErrorIs(t, err, puncherrors.ErrInvalidPunchType)
}

func TestService_CameraFailureSurfacesReason(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	deps.device.DenyPermission = true

	_, err := deps.service.StartSession(context.Background(), deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "permission_denied")
}

func TestService_StopIsIdempotentAndReleasesCamera(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	ctx := context.Background()

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	assert.NoError(t, deps.service.StopSession(ctx, deps.sessCtx.CompanyID, sess.SessionID))
	assert.NoError(t, deps.service.StopSession(ctx, deps.sessCtx.CompanyID, sess.SessionID))

	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrSessionNotFound)
}

func TestService_StopMidEvaluationDiscardsResult(t *testing.T) {
	dir := &fakeDirectory{
		pool:       []directory.Employee{{ID: uuid.New(), FullName: "Ana Oliveira"}},
		branchName: "Filial Centro",
	}
	rec := &fakeRecorder{}
	device := &camera.SimDevice{}
	engine := recognition.NewEngine(
		recognition.FixedStrategy{Score: 0.95},
		recognition.WithMinLatency(150*time.Millisecond),
	)
	svc := NewService(dir, engine, rec, NewNotifier(events.NewDispatcher()), &fakeRepo{},
		func() *camera.Session { return camera.NewSession(device, nil) })

	sessCtx := SessionContext{
		CompanyID:  uuid.New().String(),
		BranchID:   uuid.New().String(),
		TerminalID: "terminal-01",
	}
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Capture(ctx, sessCtx.CompanyID, sess.SessionID)
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, svc.StopSession(ctx, sessCtx.CompanyID, sess.SessionID))

	err = <-done
	assert.Error(t, err)
	assert.Empty(t, rec.recorded, "a cancelled evaluation must never produce a record")
}

func TestService_NewSessionReplacesStaleTerminalSession(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	ctx := context.Background()

	first, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	second, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "exit"})
	assert.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	// the stale session was torn down with its camera
	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, first.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrSessionNotFound)

	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, second.SessionID)
	assert.NoError(t, err)
}

func TestService_PersistenceFailureKeepsEventSilent(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	deps.recorder.err = puncherrors.ErrPersistence
	ctx := context.Background()

	var published int
	deps.dispatcher.Subscribe(events.PunchSubscriberFunc(func(e events.PunchConfirmedEvent) {
		published++
	}))

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)

	_, err = deps.service.Confirm(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrPersistence)
	assert.Zero(t, published, "no record means no confirmed event")

	// the consumed gate refuses a second confirm; one pending attempt
	// yields at most one record
	_, err = deps.service.Confirm(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.ErrorIs(t, err, puncherrors.ErrAlreadyConfirmed)
}

func TestService_AutoCaptureCountdownIsCancellable(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	ctx := context.Background()

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{
		PunchType:          "entry",
		AutoCaptureSeconds: 1,
	})
	assert.NoError(t, err)

	// stopping before the countdown fires must cancel the capture
	assert.NoError(t, deps.service.StopSession(ctx, deps.sessCtx.CompanyID, sess.SessionID))
	time.Sleep(1200 * time.Millisecond)
	assert.Empty(t, deps.recorder.recorded)
}

func TestService_DirectoryFailurePropagates(t *testing.T) {
	deps := setupPipeline(t, recognition.FixedStrategy{Score: 0.92})
	deps.dir.listErr = errors.New("directory down")
	ctx := context.Background()

	sess, err := deps.service.StartSession(ctx, deps.sessCtx, StartSessionRequest{PunchType: "entry"})
	assert.NoError(t, err)

	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.Error(t, err)

	// session survives a directory hiccup
	deps.dir.listErr = nil
	_, err = deps.service.Capture(ctx, deps.sessCtx.CompanyID, sess.SessionID)
	assert.NoError(t, err)
}
