package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ssargent/isiscnet/pkg/table"
)

// WriteCSV writes frame to w with a header line of column names. Absent values
// are empty cells; lists and logs are written as JSON.
func WriteCSV(w io.Writer, frame *table.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(frame.Columns); err != nil {
		return err
	}
	record := make([]string, len(frame.Columns))
	for i, row := range frame.Rows {
		for j, col := range frame.Columns {
			cell, err := FormatCell(row[col])
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, col, err)
			}
			record[j] = cell
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCell renders one table value as text.
func FormatCell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
