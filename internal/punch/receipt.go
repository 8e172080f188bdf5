package punch

import (
	"fmt"
	"math"
	"strings"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/events"

	"go.uber.org/zap"
)

// receiptTimeLayout is part of the stable receipt contract.
const receiptTimeLayout = "02/01/2006 15:04:05"

// FormatReceipt renders the line-oriented receipt text. The format is
// a stable contract with the print and share dispatchers; do not
// reorder or reword lines.
func FormatReceipt(record Record, employeeName, branchName string) string {
	var b strings.Builder
	b.WriteString("COMPROVANTE DE PONTO\n")
	b.WriteString("====================\n")
	fmt.Fprintf(&b, "Colaborador: %s\n", employeeName)
	fmt.Fprintf(&b, "Registro: %s\n", Type(record.PunchType).Label())
	fmt.Fprintf(&b, "Filial: %s\n", branchName)
	fmt.Fprintf(&b, "Data/Hora: %s\n", record.CreatedAt.Format(receiptTimeLayout))
	fmt.Fprintf(&b, "Confianca: %d%%\n", ConfidencePercent(record.Confidence))
	fmt.Fprintf(&b, "Ref: %s\n", record.ID.String())
	return b.String()
}

// ConfidencePercent rounds the score to the nearest whole percent.
func ConfidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

type ReceiptEvent struct {
	Record Record
	Text   string
}

// Notifier formats confirmed punches and fans them out through the
// typed dispatcher. Delivery is cosmetic: a missing or failing
// subscriber never fails the punch pipeline.
type Notifier struct {
	dispatcher *events.Dispatcher
	logger     *zap.Logger
}

func NewNotifier(dispatcher *events.Dispatcher, logger ...*zap.Logger) *Notifier {
	l := zap.L().Named("punch.notifier")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("punch.notifier")
	}
	return &Notifier{dispatcher: dispatcher, logger: l}
}

// Notify publishes the confirmed punch to all subscribers and returns
// the receipt. Callers only invoke this after the record committed.
func (n *Notifier) Notify(record Record, employeeName, branchName string) ReceiptEvent {
	text := FormatReceipt(record, employeeName, branchName)

	if n.dispatcher != nil {
		n.dispatcher.Publish(events.PunchConfirmedEvent{
			EventType:    "punch.confirmed",
			RecordID:     record.ID.String(),
			EmployeeID:   record.EmployeeID.String(),
			EmployeeName: employeeName,
			CompanyID:    record.CompanyID.String(),
			BranchID:     record.BranchID.String(),
			PunchType:    record.PunchType,
			Confidence:   record.Confidence,
			ReceiptText:  text,
			OccurredAt:   record.CreatedAt,
		})
	} else {
		n.logger.Debug("no dispatcher wired, receipt not broadcast",
			zap.String("record_id", record.ID.String()))
	}

	return ReceiptEvent{Record: record, Text: text}
}
