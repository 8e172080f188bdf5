package punch

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=punch_repo.go -destination=mock/punch_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Record) error
	FindAllByCompany(ctx context.Context, companyID string, limit, offset int) ([]Record, int64, error)
	FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string, limit, offset int) ([]Record, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the repository onto tx so every statement it issues
// runs inside that transaction, not on the pool. The recorder relies
// on this: the record insert and the outbox insert commit or roll back
// together.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	// passing the context forces a statement clone, so overriding the
	// conn pool here cannot leak into the shared gorm handle
	txDB := r.db.Session(&gorm.Session{Context: r.db.Statement.Context, NewDB: true})
	txDB.Statement.ConnPool = tx
	return &repository{db: txDB}
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, limit, offset int) ([]Record, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("company_id = ?", companyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Record
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *repository) FindAllByCompanyAndEmployee(ctx context.Context, companyID, employeeID string, limit, offset int) ([]Record, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&Record{}).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Record
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, total, err
}
