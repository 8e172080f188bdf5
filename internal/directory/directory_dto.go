package directory

type SupersedeTemplateRequest struct {
	Format   string `json:"format" binding:"required"`
	Template []byte `json:"template" binding:"required"`
}

type EmployeeResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	BranchID       string `json:"branch_id"`
	FullName       string `json:"full_name"`
	Position       string `json:"position,omitempty"`
	Active         bool   `json:"active"`
	TemplateFormat string `json:"template_format,omitempty"`
	HasTemplate    bool   `json:"has_template"`
}
