package ad

import "time"

type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// BatchProgress is the observable state of one batch run.
type BatchProgress struct {
	ID           string      `json:"id"`
	Modality     Modality    `json:"ad_type"`
	Total        int         `json:"total"`
	Completed    int         `json:"completed"`
	CurrentIndex int         `json:"current_index"`
	Status       BatchStatus `json:"status"`
	Error        string      `json:"error,omitempty"`
	ReportIDs    []string    `json:"report_ids"`
	CreatedBy    string      `json:"created_by,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
