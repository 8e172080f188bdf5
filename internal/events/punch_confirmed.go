package events

import "time"

const PunchConfirmedTopic = "attendance.punch.confirmed.v1"

// PunchConfirmedEvent is emitted exactly once per persisted punch
// record, after the insert committed. It never fires for failed
// persistence.
type PunchConfirmedEvent struct {
	EventType    string    `json:"event_type"`
	RecordID     string    `json:"record_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	CompanyID    string    `json:"company_id"`
	BranchID     string    `json:"branch_id"`
	PunchType    string    `json:"punch_type"`
	Confidence   float64   `json:"confidence"`
	ReceiptText  string    `json:"receipt_text"`
	OccurredAt   time.Time `json:"occurred_at"`
}
