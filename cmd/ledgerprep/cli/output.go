package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/stamped-ai/ledgerprep/internal/frame"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
	formatYAML  = "yaml"
)

func writeTable(w io.Writer, tbl *frame.Table, format string) error {
	header := append([]string{tbl.IndexName()}, tbl.Columns()...)
	switch format {
	case formatTable:
		table := tablewriter.NewWriter(w)
		table.SetHeader(header)
		table.SetAutoFormatHeaders(false)
		for i := 0; i < tbl.Len(); i++ {
			table.Append(formatRow(header, tbl.Row(i)))
		}
		table.Render()
		return nil
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for i := 0; i < tbl.Len(); i++ {
			if err := cw.Write(formatRow(header, tbl.Row(i))); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case formatJSON:
		rows := make([]orderedRow, tbl.Len())
		for i := range rows {
			rows[i] = orderedRow{keys: header, record: tbl.Row(i)}
		}
		return writeJSON(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeRecord(w io.Writer, record frame.Record, format string) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(record)); err != nil {
			return err
		}
		return enc.Close()
	case formatJSON:
		return writeJSON(w, record)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// orderedRow encodes a record with its keys in column order.
type orderedRow struct {
	keys   []string
	record frame.Record
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.record[key])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRow(header []string, record frame.Record) []string {
	row := make([]string, len(header))
	for i, name := range header {
		row[i] = formatValue(record[name])
	}
	return row
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	default:
		return fmt.Sprint(val)
	}
}
