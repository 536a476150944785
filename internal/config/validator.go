package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every problem at once rather than stopping at the first.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{Field: "server.port", Message: "port must be between 1 and 65535"})
	}

	switch c.LLM.Provider {
	case ProviderVertex:
		if c.LLM.ProjectID == "" {
			errors = append(errors, ValidationError{Field: "llm.project_id", Message: "project id is required for the vertex provider"})
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			errors = append(errors, ValidationError{Field: "llm.api_key", Message: "api key is required for the openai provider"})
		}
	default:
		errors = append(errors, ValidationError{Field: "llm.provider", Message: fmt.Sprintf("unknown provider %q", c.LLM.Provider)})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{Field: "llm.temperature", Message: "temperature must be between 0 and 2"})
	}
	if c.LLM.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{Field: "llm.requests_per_second", Message: "requests_per_second cannot be negative"})
	}

	switch c.Store.Records {
	case RecordsFirestore:
		if c.Store.ProjectID == "" {
			errors = append(errors, ValidationError{Field: "store.project_id", Message: "project id is required for firestore records"})
		}
	case RecordsMongo:
		if c.Store.URI == "" {
			errors = append(errors, ValidationError{Field: "store.uri", Message: "mongodb uri is required for mongo records"})
		}
	case RecordsMemory:
	default:
		errors = append(errors, ValidationError{Field: "store.records", Message: fmt.Sprintf("unknown record store %q", c.Store.Records)})
	}

	switch c.Store.Blobs {
	case BlobsGCS:
		if c.Store.Bucket == "" {
			errors = append(errors, ValidationError{Field: "store.bucket", Message: "bucket is required for gcs blobs"})
		}
	case BlobsGridFS:
		if c.Store.URI == "" {
			errors = append(errors, ValidationError{Field: "store.uri", Message: "mongodb uri is required for gridfs blobs"})
		}
	case BlobsMinio:
		if c.Store.Minio.Endpoint == "" {
			errors = append(errors, ValidationError{Field: "store.minio.endpoint", Message: "endpoint is required for minio blobs"})
		}
	case BlobsMemory:
	default:
		errors = append(errors, ValidationError{Field: "store.blobs", Message: fmt.Sprintf("unknown blob store %q", c.Store.Blobs)})
	}

	if c.Pipeline.RenderDPI <= 0 {
		errors = append(errors, ValidationError{Field: "pipeline.render_dpi", Message: "render_dpi must be positive"})
	}

	if c.Ingest.WorkflowID != "" && c.LLM.ProjectID == "" {
		errors = append(errors, ValidationError{Field: "ingest.workflow_id", Message: "workflow hand-off needs llm.project_id"})
	}

	if lvl := strings.ToLower(c.Log.Level); lvl != "debug" && lvl != "info" && lvl != "warn" && lvl != "error" {
		errors = append(errors, ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}

	return errors
}
