package punch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch"
	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	apperror.Init()
}

type fakeService struct {
	suggestFn func(now time.Time) punch.SuggestionResponse
	startFn   func(ctx context.Context, sessCtx punch.SessionContext, req punch.StartSessionRequest) (punch.SessionResponse, error)
	captureFn func(ctx context.Context, companyID, sessionID string) (punch.AttemptResponse, error)
	confirmFn func(ctx context.Context, companyID, sessionID string) (punch.RecordResponse, error)
	rejectFn  func(ctx context.Context, companyID, sessionID string) (punch.SessionResponse, error)
	stopFn    func(ctx context.Context, companyID, sessionID string) error
	getAllFn  func(ctx context.Context, companyID, actorID string, canReadAll bool, page, pageSize int) ([]punch.RecordResponse, int64, error)
}

func (f *fakeService) Suggest(now time.Time) punch.SuggestionResponse {
	return f.suggestFn(now)
}
func (f *fakeService) StartSession(ctx context.Context, sessCtx punch.SessionContext, req punch.StartSessionRequest) (punch.SessionResponse, error) {
	return f.startFn(ctx, sessCtx, req)
}
func (f *fakeService) Capture(ctx context.Context, companyID, sessionID string) (punch.AttemptResponse, error) {
	return f.captureFn(ctx, companyID, sessionID)
}
func (f *fakeService) Confirm(ctx context.Context, companyID, sessionID string) (punch.RecordResponse, error) {
	return f.confirmFn(ctx, companyID, sessionID)
}
func (f *fakeService) Reject(ctx context.Context, companyID, sessionID string) (punch.SessionResponse, error) {
	return f.rejectFn(ctx, companyID, sessionID)
}
func (f *fakeService) StopSession(ctx context.Context, companyID, sessionID string) error {
	return f.stopFn(ctx, companyID, sessionID)
}
func (f *fakeService) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool, page, pageSize int) ([]punch.RecordResponse, int64, error) {
	return f.getAllFn(ctx, companyID, actorID, canReadAll, page, pageSize)
}

func TestHandler_StartCaptureConfirm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()
	sessionID := uuid.New().String()

	svc := &fakeService{
		startFn: func(ctx context.Context, sessCtx punch.SessionContext, req punch.StartSessionRequest) (punch.SessionResponse, error) {
			assert.Equal(t, companyID, sessCtx.CompanyID)
			assert.Equal(t, "terminal-01", sessCtx.TerminalID)
			assert.Equal(t, "entry", req.PunchType)
			return punch.SessionResponse{SessionID: sessionID, PunchType: "entry", CameraState: "active", GateState: "empty"}, nil
		},
		captureFn: func(ctx context.Context, cid, sid string) (punch.AttemptResponse, error) {
			assert.Equal(t, sessionID, sid)
			return punch.AttemptResponse{Outcome: "success", EmployeeName: "Ana Oliveira", Confidence: 0.92}, nil
		},
		confirmFn: func(ctx context.Context, cid, sid string) (punch.RecordResponse, error) {
			return punch.RecordResponse{ID: uuid.New().String(), EmployeeName: "Ana Oliveira", ConfidencePct: 92}, nil
		},
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Set("branch_id", uuid.New().String())
	c.Set("terminal_id", "terminal-01")
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions", strings.NewReader(`{"punch_type":"entry"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.StartSession(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), sessionID)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Set("company_id", companyID)
	c2.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/"+sessionID+"/capture", nil)
	c2.Params = gin.Params{{Key: "id", Value: sessionID}}
	h.Capture(c2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "Ana Oliveira")

	w3 := httptest.NewRecorder()
	c3, _ := gin.CreateTestContext(w3)
	c3.Set("company_id", companyID)
	c3.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/"+sessionID+"/confirm", nil)
	c3.Params = gin.Params{{Key: "id", Value: sessionID}}
	h.Confirm(c3)
	assert.Equal(t, http.StatusCreated, w3.Code)
}

func TestHandler_StartSessionValidatesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := punch.NewHandler(&fakeService{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.StartSession(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CaptureLowConfidenceCarriesDiagnostics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		captureFn: func(ctx context.Context, cid, sid string) (punch.AttemptResponse, error) {
			return punch.AttemptResponse{Outcome: "low_confidence", Confidence: 0.40}, puncherrors.ErrLowConfidence
		},
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/abc/capture", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Capture(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "LOW_CONFIDENCE")
	assert.Contains(t, w.Body.String(), "\"outcome\":\"low_confidence\"")
	assert.Contains(t, w.Body.String(), "0.4")
}

func TestHandler_CaptureNoMatchIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		captureFn: func(ctx context.Context, cid, sid string) (punch.AttemptResponse, error) {
			return punch.AttemptResponse{Outcome: "no_match"}, puncherrors.ErrNoMatch
		},
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/abc/capture", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Capture(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_MATCH")
}

func TestHandler_ConfirmStoresReplayableResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, redisMock := redismock.NewClientMock()

	resp := punch.RecordResponse{ID: uuid.New().String(), EmployeeName: "Ana Oliveira", ConfidencePct: 92}
	svc := &fakeService{
		confirmFn: func(ctx context.Context, cid, sid string) (punch.RecordResponse, error) {
			return resp, nil
		},
	}
	h := punch.NewHandlerWithRedis(svc, rdb)

	cacheKey := "idemp:/punch/sessions/:id/confirm:terminal-01:key-1"
	lockKey := cacheKey + ":lock"
	payload, _ := json.Marshal(resp)

	// success is cached under the idempotency key, then the lock drops
	redisMock.ExpectSet(cacheKey, payload, 24*time.Hour).SetVal("OK")
	redisMock.ExpectDel(lockKey).SetVal(1)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("idempotency_cache_key", cacheKey)
	c.Set("idempotency_lock_key", lockKey)
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/abc/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Confirm(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_ConfirmFailureReleasesLockWithoutCaching(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb, redisMock := redismock.NewClientMock()

	svc := &fakeService{
		confirmFn: func(ctx context.Context, cid, sid string) (punch.RecordResponse, error) {
			return punch.RecordResponse{}, puncherrors.ErrNoPendingAttempt
		},
	}
	h := punch.NewHandlerWithRedis(svc, rdb)

	lockKey := "idemp:/punch/sessions/:id/confirm:terminal-01:key-1:lock"
	redisMock.ExpectDel(lockKey).SetVal(1)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("idempotency_cache_key", "idemp:/punch/sessions/:id/confirm:terminal-01:key-1")
	c.Set("idempotency_lock_key", lockKey)
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/abc/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Confirm(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_ConfirmWithoutPendingAttempt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		confirmFn: func(ctx context.Context, cid, sid string) (punch.RecordResponse, error) {
			return punch.RecordResponse{}, puncherrors.ErrNoPendingAttempt
		},
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Request = httptest.NewRequest(http.MethodPost, "/punch/sessions/abc/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Confirm(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_SuggestionAndStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		suggestFn: func(now time.Time) punch.SuggestionResponse {
			return punch.SuggestionResponse{PunchType: "entry", Label: "Entrada"}
		},
		stopFn: func(ctx context.Context, cid, sid string) error { return nil },
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/punch/suggestion", nil)
	h.Suggestion(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Entrada")

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Set("company_id", uuid.New().String())
	c2.Request = httptest.NewRequest(http.MethodDelete, "/punch/sessions/abc", nil)
	c2.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.StopSession(c2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "stopped")
}

func TestHandler_GetAllPaginatesAndScopesByRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	companyID := uuid.New().String()

	svc := &fakeService{
		getAllFn: func(ctx context.Context, cid, actorID string, canReadAll bool, page, pageSize int) ([]punch.RecordResponse, int64, error) {
			assert.Equal(t, companyID, cid)
			assert.False(t, canReadAll)
			assert.Equal(t, 2, page)
			assert.Equal(t, 2, pageSize)
			// one page of rows, the full count comes back separately
			return []punch.RecordResponse{{ID: uuid.New().String()}}, 5, nil
		},
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", companyID)
	c.Set("operator_id", uuid.New().String())
	c.Set("role", "EMPLOYEE")
	c.Request = httptest.NewRequest(http.MethodGet, "/punch/records?page=2&page_size=2", nil)
	h.GetAll(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"meta\"")
	assert.Contains(t, w.Body.String(), "\"total\":5")
	assert.Contains(t, w.Body.String(), "\"totalPages\":3")
}

func TestHandler_GetAllPrivilegedRoleReadsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{
		getAllFn: func(ctx context.Context, cid, actorID string, canReadAll bool, page, pageSize int) ([]punch.RecordResponse, int64, error) {
			assert.True(t, canReadAll)
			return nil, 0, nil
		},
	}
	h := punch.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("company_id", uuid.New().String())
	c.Set("role", "HR")
	c.Request = httptest.NewRequest(http.MethodGet, "/punch/records", nil)
	h.GetAll(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
