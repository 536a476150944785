package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// DefaultExampleModel is used whenever no usable example model file exists.
const DefaultExampleModel = `Year,Revenue,Expenses,Net Income,Cash Flow
2025,1000000,800000,200000,250000
2026,1100000,850000,250000,300000
2027,1200000,900000,300000,350000
2028,1300000,950000,350000,400000
2029,1400000,1000000,400000,450000`

// LoadExampleTemplate reads the example model CSV at path and normalises it.
// A missing, empty or unparseable file yields DefaultExampleModel.
func LoadExampleTemplate(path string) string {
	logCtx := slog.With("path", path)
	if path == "" {
		return DefaultExampleModel
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logCtx.Info("Example model not found. Using default template.")
		} else {
			logCtx.Warn("Could not read example model. Using default template.", "error", err)
		}
		return DefaultExampleModel
	}

	normalised, err := normaliseCSV(raw)
	if err != nil {
		logCtx.Warn("Example model is not valid CSV. Using default template.", "error", err)
		return DefaultExampleModel
	}
	if normalised == "" {
		logCtx.Warn("Example model is empty. Using default template.")
		return DefaultExampleModel
	}
	logCtx.Info("Example model loaded.")
	return normalised
}

func normaliseCSV(raw []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
