// Package leadimport turns uploaded lead spreadsheets into the header-keyed
// rows consumed by the import reconciler.
package leadimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type: use .csv or .xlsx")
	ErrNoHeader          = errors.New("file has no header row")
)

// Sheet is a decoded spreadsheet: the header row in file order, plus one map
// per data row keyed by header. Cells missing from short rows are "".
type Sheet struct {
	Headers []string
	Rows    []map[string]string
}

// Decode picks a decoder from the file extension.
func Decode(filename string, r io.Reader) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return DecodeCSV(r)
	case ".xlsx":
		return DecodeXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func DecodeCSV(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(records)
}

// DecodeXLSX reads the first worksheet of a workbook.
func DecodeXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(records)
}

// fromRecords keys rows by the first row. Blank header cells and repeated
// headers drop their column; fully blank rows are skipped.
func fromRecords(records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	head := records[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}

	s := &Sheet{}
	cols := make([]int, 0, len(head))
	seen := make(map[string]bool, len(head))
	for i, h := range head {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		s.Headers = append(s.Headers, h)
		cols = append(cols, i)
	}
	if len(s.Headers) == 0 {
		return nil, ErrNoHeader
	}

	s.Rows = make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(cols))
		blank := true
		for j, c := range cols {
			v := ""
			if c < len(rec) {
				v = rec[c]
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[s.Headers[j]] = v
		}
		if !blank {
			s.Rows = append(s.Rows, row)
		}
	}
	return s, nil
}

var defaultTargets = map[string]string{
	"name":     "name",
	"phone":    "phone",
	"location": "location",
	"status":   "status",
}

// DefaultMapping maps headers whose trimmed, lower-cased text is exactly a
// lead field name onto that field and ignores every other column.
func DefaultMapping(headers []string) map[string]string {
	m := make(map[string]string, len(headers))
	taken := map[string]bool{}
	for _, h := range headers {
		t, ok := defaultTargets[strings.ToLower(strings.TrimSpace(h))]
		if !ok || taken[t] {
			m[h] = "ignore"
			continue
		}
		taken[t] = true
		m[h] = t
	}
	return m
}

// Headers returns the union of keys across rows in first-seen order. Keys
// within a row are visited in sorted order.
func Headers(rows []map[string]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
