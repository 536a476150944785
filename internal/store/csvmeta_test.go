package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSVMeta(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		rows    int
		columns []string
	}{
		{
			name:    "empty",
			in:      "",
			rows:    0,
			columns: []string{},
		},
		{
			name:    "whitespace only",
			in:      " \n\n ",
			rows:    0,
			columns: []string{},
		},
		{
			name:    "header only",
			in:      "Year,Revenue\n",
			rows:    0,
			columns: []string{"Year", "Revenue"},
		},
		{
			name:    "single row",
			in:      "Year,Revenue\n2024,100",
			rows:    1,
			columns: []string{"Year", "Revenue"},
		},
		{
			name:    "blank lines skipped",
			in:      "Year,Revenue\n\n2023,90\n\n2024,100\n",
			rows:    2,
			columns: []string{"Year", "Revenue"},
		},
		{
			name:    "ragged rows tolerated",
			in:      "Item,2024,2023\nRevenue,100\nNet income,10,8,extra\n",
			rows:    2,
			columns: []string{"Item", "2024", "2023"},
		},
		{
			name:    "quoted fields",
			in:      "\"Line item\",\"Amount, USD\"\n\"Revenue\",\"1,000\"\r\n",
			rows:    1,
			columns: []string{"Line item", "Amount, USD"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ParseCSVMeta(tt.in)
			assert.Equal(t, tt.rows, meta.RowCount)
			assert.Equal(t, tt.columns, meta.Columns)
		})
	}
}

func TestLineMetaFallback(t *testing.T) {
	meta := lineMeta("A, B\n1,2\r\n\n3,4\n")
	assert.Equal(t, 2, meta.RowCount)
	assert.Equal(t, []string{"A", "B"}, meta.Columns)
}
