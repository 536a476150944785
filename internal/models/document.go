package models

import "time"

// Record status values.
const (
	StatusCompleted = "completed"
)

// StatementRecord is the reference document written once per successful pipeline run.
// It points at the stored CSV blob and carries the metadata recovered from it.
type StatementRecord struct {
	ID               string    `firestore:"-" bson:"-" json:"id"`
	OriginalFilename string    `firestore:"original_filename" bson:"original_filename" json:"original_filename"`
	CSVFilename      string    `firestore:"csv_filename" bson:"csv_filename" json:"csv_filename"`
	StoredFileID     string    `firestore:"stored_file_id" bson:"stored_file_id" json:"stored_file_id"`
	UploadDate       time.Time `firestore:"upload_date" bson:"upload_date" json:"upload_date"`
	FileSize         int64     `firestore:"file_size" bson:"file_size" json:"file_size"`
	RowCount         int       `firestore:"row_count" bson:"row_count" json:"row_count"`
	Columns          []string  `firestore:"columns" bson:"columns" json:"columns"`
	Status           string    `firestore:"status" bson:"status" json:"status"`
	SourceSHA256     string    `firestore:"source_sha256,omitempty" bson:"source_sha256,omitempty" json:"source_sha256,omitempty"`
	Analysis         string    `firestore:"analysis,omitempty" bson:"analysis,omitempty" json:"analysis,omitempty"`
	Model            string    `firestore:"model,omitempty" bson:"model,omitempty" json:"model,omitempty"`
}

// FileMetadata is attached to the stored CSV blob itself.
type FileMetadata struct {
	OriginalFilename string    `bson:"original_filename" json:"original_filename"`
	UploadDate       time.Time `bson:"upload_date" json:"upload_date"`
	ContentType      string    `bson:"content_type" json:"content_type"`
	RowCount         int       `bson:"row_count" json:"row_count"`
	Columns          []string  `bson:"columns" json:"columns"`
}
