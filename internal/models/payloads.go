package models

// These structs define the JSON payloads returned by the HTTP surface.

// AnalyzeFinancialsResponse is the output of POST /analyze-financials.
// The id fields are omitted when persistence failed; Error then says why.
type AnalyzeFinancialsResponse struct {
	CSV               string `json:"csv"`
	Analysis          string `json:"analysis"`
	FinancialModel    string `json:"financial_model,omitempty"`
	MongoDBFileID     string `json:"mongodb_file_id,omitempty"`
	MongoDBDocumentID string `json:"mongodb_document_id,omitempty"`
	Filename          string `json:"filename"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
}

// BuildFinancialModelResponse is the output of POST /build-financial-model.
type BuildFinancialModelResponse struct {
	CSV               string `json:"csv"`
	Model             string `json:"model"`
	MongoDBFileID     string `json:"mongodb_file_id,omitempty"`
	MongoDBDocumentID string `json:"mongodb_document_id,omitempty"`
	Filename          string `json:"filename"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
}

// ConvertPDFResponse is the output of /convert-pdf.
type ConvertPDFResponse struct {
	Base64Encoded string `json:"base64_encoded"`
}

// ErrorResponse is the single envelope used for every fatal error.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// StatementIngestEvent is the GCS object-finalized payload consumed by the ingest function.
type StatementIngestEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}

// WorkflowHandoff is the argument passed to the downstream workflow after an ingest run.
type WorkflowHandoff struct {
	RecordID     string `json:"recordId"`
	StoredFileID string `json:"storedFileId"`
	SourceBucket string `json:"sourceBucket"`
	SourceObject string `json:"sourceObject"`
}
