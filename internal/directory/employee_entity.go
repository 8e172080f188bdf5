package directory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is the directory's view of a worker eligible to punch.
// The reference template is the single active biometric sample for the
// employee; superseding writes a new blob over the old one, templates
// are never merged.
type Employee struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CompanyID         uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	BranchID          uuid.UUID      `gorm:"column:branch_id;type:uuid;not null;index" json:"branch_id"`
	FullName          string         `gorm:"column:full_name;not null" json:"full_name"`
	Position          string         `gorm:"column:position;type:varchar(100)" json:"position"`
	Active            bool           `gorm:"column:active;not null;default:true" json:"active"`
	TemplateFormat    string         `gorm:"column:template_format;type:varchar(30)" json:"template_format"`
	Template          []byte         `gorm:"column:template;type:bytea" json:"template,omitempty"`
	TemplateUpdatedAt time.Time      `gorm:"column:template_updated_at" json:"template_updated_at"`
	CreatedAt         time.Time      `gorm:"column:created_at" json:"-"`
	UpdatedAt         time.Time      `gorm:"column:updated_at" json:"-"`
	DeletedAt         gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Employee) TableName() string {
	return "employees"
}
