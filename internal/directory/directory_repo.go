package directory

import (
	"context"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=directory_repo.go -destination=mock/directory_repo_mock.go -package=mock
type Repository interface {
	ListActiveByBranch(ctx context.Context, companyID, branchID string) ([]Employee, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error)
	SupersedeTemplate(ctx context.Context, companyID, id, format string, template []byte) error
	GetBranchName(ctx context.Context, companyID, branchID string) (string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActiveByBranch(ctx context.Context, companyID, branchID string) ([]Employee, error) {
	var emps []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.BranchScope(companyID, branchID)).
		Where("active = ?", true).
		Order("full_name ASC").
		Find(&emps).Error
	return emps, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error) {
	var emp Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&emp, "id = ?", id).Error
	return &emp, err
}

// SupersedeTemplate replaces the active reference template in place so
// there is never more than one per employee.
func (r *repository) SupersedeTemplate(ctx context.Context, companyID, id, format string, template []byte) error {
	return r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Updates(map[string]any{
			"template_format":     format,
			"template":            template,
			"template_updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *repository) GetBranchName(ctx context.Context, companyID, branchID string) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Table("branches").
		Select("name").
		Where("id = ?", branchID).
		Where("company_id = ?", companyID).
		Where("deleted_at IS NULL").
		Scan(&name).Error
	return name, err
}
