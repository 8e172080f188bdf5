package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	directoryerrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/directory/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const poolCacheTTL = 5 * time.Minute

//go:generate mockgen -source=directory_service.go -destination=mock/directory_service_mock.go -package=mock
type Service interface {
	// ListActiveEmployees returns the recognition candidate pool for a
	// branch. Results are cached; InvalidatePool drops the cache.
	ListActiveEmployees(ctx context.Context, companyID, branchID string) ([]Employee, error)
	InvalidatePool(ctx context.Context, companyID, branchID string)
	GetBranchName(ctx context.Context, companyID, branchID string) (string, error)
	GetAll(ctx context.Context, companyID, branchID string) ([]EmployeeResponse, error)
	SupersedeTemplate(ctx context.Context, companyID, employeeID string, req SupersedeTemplateRequest) error
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("directory.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("directory.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func poolCacheKey(companyID, branchID string) string {
	return fmt.Sprintf("punch:pool:%s:%s", companyID, branchID)
}

func (s *service) ListActiveEmployees(ctx context.Context, companyID, branchID string) ([]Employee, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, directoryerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(branchID); err != nil {
		return nil, directoryerrors.ErrInvalidBranchID
	}

	key := poolCacheKey(companyID, branchID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var pool []Employee
			if err := json.Unmarshal([]byte(cached), &pool); err == nil {
				return pool, nil
			}
			// poisoned entry, fall through to a rebuild
			s.rdb.Del(ctx, key)
		}
	}

	// singleflight so a burst of captures rebuilds the pool once
	v, err, _ := s.sf.Do(key, func() (any, error) {
		pool, err := s.repo.ListActiveByBranch(ctx, companyID, branchID)
		if err != nil {
			return nil, err
		}
		if s.rdb != nil {
			if payload, err := json.Marshal(pool); err == nil {
				if err := s.rdb.Set(ctx, key, payload, poolCacheTTL).Err(); err != nil {
					s.logger.Warn("pool cache write failed",
						zap.String("branch_id", branchID), zap.Error(err))
				}
			}
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Employee), nil
}

func (s *service) InvalidatePool(ctx context.Context, companyID, branchID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, poolCacheKey(companyID, branchID)).Err(); err != nil {
		s.logger.Warn("pool cache invalidation failed",
			zap.String("branch_id", branchID), zap.Error(err))
	}
}

func (s *service) GetBranchName(ctx context.Context, companyID, branchID string) (string, error) {
	return s.repo.GetBranchName(ctx, companyID, branchID)
}

func (s *service) GetAll(ctx context.Context, companyID, branchID string) ([]EmployeeResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, directoryerrors.ErrInvalidCompanyID
	}
	rows, err := s.repo.ListActiveByBranch(ctx, companyID, branchID)
	if err != nil {
		return nil, err
	}
	res := make([]EmployeeResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) SupersedeTemplate(ctx context.Context, companyID, employeeID string, req SupersedeTemplateRequest) error {
	if _, err := uuid.Parse(employeeID); err != nil {
		return directoryerrors.ErrInvalidEmployeeID
	}
	if len(req.Template) == 0 {
		return directoryerrors.ErrEmptyTemplate
	}

	emp, err := s.repo.FindByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return directoryerrors.ErrEmployeeNotFound
		}
		return err
	}

	if err := s.repo.SupersedeTemplate(ctx, companyID, employeeID, req.Format, req.Template); err != nil {
		s.logger.Error("supersede template failed",
			zap.String("employee_id", employeeID), zap.Error(err))
		return err
	}

	// the cached pool still carries the old template
	s.InvalidatePool(ctx, companyID, emp.BranchID.String())

	s.logger.Info("reference template superseded",
		zap.String("employee_id", employeeID),
		zap.String("format", req.Format),
	)
	return nil
}

func mapToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID.String(),
		CompanyID:      e.CompanyID.String(),
		BranchID:       e.BranchID.String(),
		FullName:       e.FullName,
		Position:       e.Position,
		Active:         e.Active,
		TemplateFormat: e.TemplateFormat,
		HasTemplate:    len(e.Template) > 0,
	}
}
