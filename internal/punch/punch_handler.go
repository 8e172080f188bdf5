package punch

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/apperror"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// idempotencyTTL keeps a confirmed response replayable long enough for
// any duplicate tap or client retry, then lets the key expire.
const idempotencyTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func sessionContext(c *gin.Context) SessionContext {
	return SessionContext{
		CompanyID:  c.GetString("company_id"),
		BranchID:   c.GetString("branch_id"),
		TerminalID: c.GetString("terminal_id"),
	}
}

// Suggestion returns the advisory punch type for the current hour.
func (h *Handler) Suggestion(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.Suggest(time.Now()), nil)
}

func (h *Handler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.StartSession(c.Request.Context(), sessionContext(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Capture(c *gin.Context) {
	companyID := c.GetString("company_id")
	sessionID := c.Param("id")

	resp, err := h.service.Capture(c.Request.Context(), companyID, sessionID)
	if err != nil {
		// recognition misses keep their diagnostics in the details so
		// the kiosk can tell "recapture" apart from "not enrolled"
		if errors.Is(err, puncherrors.ErrLowConfidence) || errors.Is(err, puncherrors.ErrNoMatch) {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, gin.H{
				"outcome":    resp.Outcome,
				"confidence": resp.Confidence,
			})
			return
		}
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Confirm(c *gin.Context) {
	lockKey, _ := c.Get("idempotency_lock_key")
	cacheKey, _ := c.Get("idempotency_cache_key")

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	companyID := c.GetString("company_id")
	sessionID := c.Param("id")

	resp, err := h.service.Confirm(c.Request.Context(), companyID, sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// a duplicate tap with the same Idempotency-Key replays this
	// response from the middleware instead of re-confirming
	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, idempotencyTTL).Err()
			}
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	companyID := c.GetString("company_id")
	sessionID := c.Param("id")

	resp, err := h.service.Reject(c.Request.Context(), companyID, sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) StopSession(c *gin.Context) {
	companyID := c.GetString("company_id")
	sessionID := c.Param("id")

	if err := h.service.StopSession(c.Request.Context(), companyID, sessionID); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session_id": sessionID, "state": "stopped"}, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("operator_id")
	role := strings.ToUpper(strings.TrimSpace(c.GetString("role")))
	canReadAll := isPrivilegedRole(role)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	resp, total, err := h.service.GetAll(c.Request.Context(), companyID, actorID, canReadAll, page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp, &meta)
}

func isPrivilegedRole(role string) bool {
	switch role {
	case "SUPER_ADMIN", "ADMIN", "HR", "MANAGER":
		return true
	default:
		return false
	}
}
