package puncherrors

import (
	"net/http"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/apperror"
)

var (
	ErrInvalidPunchType = apperror.New(
		apperror.CodeInvalidInput,
		"punch type must be one of entry, break_start, break_end, exit",
		http.StatusBadRequest,
	)
	ErrSessionNotFound = apperror.New(
		apperror.CodeNotFound,
		"punch session not found",
		http.StatusNotFound,
	)
	ErrEvaluationInFlight = apperror.New(
		apperror.CodeInvalidState,
		"a recognition evaluation is already in progress",
		http.StatusConflict,
	)
	ErrAttemptPending = apperror.New(
		apperror.CodeInvalidState,
		"an attempt is awaiting confirmation; confirm or reject it first",
		http.StatusConflict,
	)
	ErrNoPendingAttempt = apperror.New(
		apperror.CodeInvalidState,
		"no attempt is awaiting confirmation",
		http.StatusConflict,
	)
	ErrAlreadyConfirmed = apperror.New(
		apperror.CodeInvalidState,
		"attempt was already confirmed",
		http.StatusConflict,
	)
	ErrNoMatch = apperror.New(
		apperror.CodeNoMatch,
		"no matching employee was found",
		http.StatusNotFound,
	)
	ErrLowConfidence = apperror.New(
		apperror.CodeLowConfidence,
		"match confidence too low, recapture and try again",
		http.StatusUnprocessableEntity,
	)
	ErrNotConfirmed = apperror.New(
		apperror.CodeInvalidState,
		"attempt is not confirmed",
		http.StatusConflict,
	)
	ErrDuplicateRecord = apperror.New(
		apperror.CodeConflict,
		"an identical punch record already exists",
		http.StatusConflict,
	)
	ErrPersistence = apperror.New(
		apperror.CodePersistenceFailure,
		"punch record could not be saved; the punch was NOT registered",
		http.StatusInternalServerError,
	)
)
