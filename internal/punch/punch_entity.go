package punch

import (
	"time"

	"github.com/google/uuid"
)

// Record is one confirmed punch. Rows are append-only: corrections are
// registered as new records, never as updates, so the repository
// deliberately has no Update or Delete.
type Record struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"column:company_id;type:uuid;not null;index"`
	BranchID   uuid.UUID `gorm:"column:branch_id;type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"column:employee_id;type:uuid;not null;index"`
	PunchType  string    `gorm:"column:punch_type;type:varchar(20);not null"`
	Confidence float64   `gorm:"column:confidence;not null"`
	FrameRef   string    `gorm:"column:frame_ref;type:varchar(100)"`
	Confirmed  bool      `gorm:"column:confirmed;not null;default:true"`
	TerminalID string    `gorm:"column:terminal_id;type:varchar(100)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	Employee   *EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (Record) TableName() string {
	return "punch_records"
}

type EmployeeRef struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName string    `gorm:"column:full_name"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}
