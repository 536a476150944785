package store

import (
	"encoding/csv"
	"io"
	"strings"
)

// CSVMeta is the shape information recovered from CSV text.
type CSVMeta struct {
	RowCount int
	Columns  []string
}

// ParseCSVMeta counts data rows and reads the header. Empty input yields zero
// rows and no columns. Rows are not required to match the header width; text
// that the csv reader rejects outright is measured line by line instead.
func ParseCSVMeta(text string) CSVMeta {
	meta := CSVMeta{Columns: []string{}}
	if strings.TrimSpace(text) == "" {
		return meta
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return lineMeta(text)
	}
	meta.Columns = header

	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return lineMeta(text)
		}
		meta.RowCount++
	}
	return meta
}

func lineMeta(text string) CSVMeta {
	meta := CSVMeta{Columns: []string{}}
	headerSeen := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !headerSeen {
			for _, col := range strings.Split(line, ",") {
				meta.Columns = append(meta.Columns, strings.TrimSpace(col))
			}
			headerSeen = true
			continue
		}
		meta.RowCount++
	}
	return meta
}
