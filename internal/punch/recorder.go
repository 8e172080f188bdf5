package punch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/events"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/messaging/kafka"
	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/recognition"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

// recordMaxAttempts bounds the retry on transient persistence errors.
// Silent data loss is not acceptable, endless retrying is not either.
const recordMaxAttempts = 3

// RecordMeta carries the session context a record is written under.
type RecordMeta struct {
	CompanyID  string
	BranchID   string
	BranchName string
	TerminalID string
}

//go:generate mockgen -source=recorder.go -destination=mock/recorder_mock.go -package=mock
type Recorder interface {
	// Record persists one confirmed attempt as an append-only punch
	// record, writing the confirmed-punch outbox event in the same
	// transaction.
	Record(ctx context.Context, attempt recognition.Attempt, punchType Type, meta RecordMeta) (Record, error)
}

type recorder struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewRecorder(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Recorder {
	l := zap.L().Named("punch.recorder")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("punch.recorder")
	}
	return &recorder{db: db, repo: repo, outbox: outbox, logger: l}
}

func (r *recorder) Record(ctx context.Context, attempt recognition.Attempt, punchType Type, meta RecordMeta) (Record, error) {
	if attempt.Outcome != recognition.OutcomeSuccess || attempt.Employee == nil {
		return Record{}, puncherrors.ErrNotConfirmed
	}
	if !punchType.Valid() {
		return Record{}, puncherrors.ErrInvalidPunchType
	}

	companyUUID, err := uuid.Parse(meta.CompanyID)
	if err != nil {
		return Record{}, puncherrors.ErrSessionNotFound
	}
	branchUUID, err := uuid.Parse(meta.BranchID)
	if err != nil {
		return Record{}, puncherrors.ErrSessionNotFound
	}

	rec := Record{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		BranchID:   branchUUID,
		EmployeeID: attempt.Employee.ID,
		PunchType:  string(punchType),
		Confidence: attempt.Confidence,
		FrameRef:   attempt.Frame.ID,
		Confirmed:  true,
		TerminalID: meta.TerminalID,
		CreatedAt:  time.Now().UTC(),
	}

	var lastErr error
	for i := 1; i <= recordMaxAttempts; i++ {
		err := r.writeOnce(ctx, &rec, attempt, meta)
		if err == nil {
			r.logger.Info("punch recorded",
				zap.String("record_id", rec.ID.String()),
				zap.String("employee_id", rec.EmployeeID.String()),
				zap.String("punch_type", rec.PunchType),
				zap.Float64("confidence", rec.Confidence),
			)
			return rec, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// never overwrite or merge with an existing record
			return Record{}, puncherrors.ErrDuplicateRecord
		}
		if ctx.Err() != nil {
			return Record{}, ctx.Err()
		}

		lastErr = err
		r.logger.Warn("punch persist attempt failed",
			zap.Int("attempt", i), zap.Int("max", recordMaxAttempts), zap.Error(err))
	}

	r.logger.Error("punch persist exhausted retries", zap.Error(lastErr))
	return Record{}, puncherrors.ErrPersistence
}

func (r *recorder) writeOnce(ctx context.Context, rec *Record, attempt recognition.Attempt, meta RecordMeta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := r.repo.WithTx(tx)
	if err := qtx.Create(ctx, rec); err != nil {
		return err
	}

	event := events.PunchConfirmedEvent{
		EventType:    "punch.confirmed",
		RecordID:     rec.ID.String(),
		EmployeeID:   rec.EmployeeID.String(),
		EmployeeName: attempt.Employee.FullName,
		CompanyID:    rec.CompanyID.String(),
		BranchID:     rec.BranchID.String(),
		PunchType:    rec.PunchType,
		Confidence:   rec.Confidence,
		ReceiptText:  FormatReceipt(*rec, attempt.Employee.FullName, meta.BranchName),
		OccurredAt:   rec.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := r.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "punch_record",
		AggregateID:   rec.ID.String(),
		EventType:     event.EventType,
		Topic:         events.PunchConfirmedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return err
	}

	return tx.Commit()
}
