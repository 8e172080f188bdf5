package tenant

import "gorm.io/gorm"

// Scope limits a query to one company. Every tenant-owned table carries
// a company_id column.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}

// BranchScope narrows further to a single branch inside the company.
func BranchScope(companyID, branchID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID).Where("branch_id = ?", branchID)
	}
}
