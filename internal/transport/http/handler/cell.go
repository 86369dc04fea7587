package handler

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Cell is one imported spreadsheet value. Clients often send numeric phones
// as JSON numbers; those keep their literal text instead of failing to bind.
type Cell string

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*c = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cell(s)
	case b[0] == '{' || b[0] == '[':
		return errors.New("row values must be scalars")
	default:
		*c = Cell(b)
	}
	return nil
}

func toRows(in []map[string]Cell) []map[string]string {
	if in == nil {
		return nil
	}
	out := make([]map[string]string, len(in))
	for i, row := range in {
		m := make(map[string]string, len(row))
		for k, v := range row {
			m[k] = string(v)
		}
		out[i] = m
	}
	return out
}
