package punch

type StartSessionRequest struct {
	PunchType string `json:"punch_type" binding:"required"`
	// AutoCaptureSeconds > 0 arms a cancellable countdown that fires a
	// capture automatically, mirroring the kiosk's hands-free mode.
	AutoCaptureSeconds int `json:"auto_capture_seconds"`
}

type SessionResponse struct {
	SessionID   string `json:"session_id"`
	PunchType   string `json:"punch_type"`
	CameraState string `json:"camera_state"`
	GateState   string `json:"gate_state"`
}

type SuggestionResponse struct {
	PunchType string `json:"punch_type"`
	Label     string `json:"label"`
}

type AttemptResponse struct {
	Outcome      string  `json:"outcome"`
	EmployeeID   string  `json:"employee_id,omitempty"`
	EmployeeName string  `json:"employee_name,omitempty"`
	Confidence   float64 `json:"confidence"`
	FrameRef     string  `json:"frame_ref,omitempty"`
}

type RecordResponse struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	BranchID      string  `json:"branch_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	PunchType     string  `json:"punch_type"`
	PunchLabel    string  `json:"punch_label"`
	Confidence    float64 `json:"confidence"`
	ConfidencePct int     `json:"confidence_pct"`
	FrameRef      string  `json:"frame_ref,omitempty"`
	Confirmed     bool    `json:"confirmed"`
	TerminalID    string  `json:"terminal_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ReceiptText   string  `json:"receipt_text,omitempty"`
}
