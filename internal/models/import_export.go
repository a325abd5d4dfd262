package models

type ImportStatus string

const (
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
)

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

type ImportResult struct {
	SubjectID     uint                    `json:"subjectId"`
	TotalRows     int                     `json:"totalRows"`
	ProcessedRows int                     `json:"processedRows"`
	SuccessCount  int                     `json:"successCount"`
	ErrorCount    int                     `json:"errorCount"`
	Errors        []ImportValidationError `json:"errors"`
	Questions     []Question              `json:"questions,omitempty"`
	Status        ImportStatus            `json:"status"`
}
