package engine

import (
	"bytes"
	"encoding/json"
	"math"

	"shop-sim-viewer/src/models"
)

// Normalize converts one wire-encoded position into the canonical form. Accepted shapes are a
// two element numeric pair read as [row, col], a record with row/col or fila/columna keys, and
// an MPosition. Everything else, including negative or fractional values, is reported absent.
func Normalize(raw any) (models.MPosition, bool) {
	switch v := raw.(type) {
	case nil:
		return models.MPosition{}, false
	case models.MPosition:
		return v, v.Row >= 0 && v.Col >= 0
	case *models.MPosition:
		if v == nil {
			return models.MPosition{}, false
		}
		return Normalize(*v)
	case models.MCell:
		return Normalize(models.MPosition{Row: v.Row, Col: v.Col})
	case json.RawMessage:
		return NormalizeJSON(v)
	case []any:
		if len(v) != 2 {
			return models.MPosition{}, false
		}
		return pair(v[0], v[1])
	case []float64:
		if len(v) != 2 {
			return models.MPosition{}, false
		}
		return pair(v[0], v[1])
	case []int:
		if len(v) != 2 {
			return models.MPosition{}, false
		}
		return pair(v[0], v[1])
	case map[string]any:
		if r, ok := v["row"]; ok {
			c, ok := v["col"]
			if !ok {
				return models.MPosition{}, false
			}
			return pair(r, c)
		}
		r, okR := v["fila"]
		c, okC := v["columna"]
		if !okR || !okC {
			return models.MPosition{}, false
		}
		return pair(r, c)
	}
	return models.MPosition{}, false
}

// -----------------------------------------------------------------------------

// NormalizeJSON decodes raw and normalizes the result. Numbers are kept exact so that 2.5 is
// rejected rather than truncated.
func NormalizeJSON(raw json.RawMessage) (models.MPosition, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.MPosition{}, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return models.MPosition{}, false
	}
	return Normalize(v)
}

// -----------------------------------------------------------------------------

// NormalizePath normalizes every entry of a raw route and drops the invalid ones, preserving
// order. dropped counts the removed entries.
func NormalizePath(raw []json.RawMessage) (path []models.MPosition, dropped int) {
	path = make([]models.MPosition, 0, len(raw))
	for _, r := range raw {
		p, ok := NormalizeJSON(r)
		if !ok {
			dropped++
			continue
		}
		path = append(path, p)
	}
	return path, dropped
}

// -----------------------------------------------------------------------------

func pair(r, c any) (models.MPosition, bool) {
	row, ok := gridIndex(r)
	if !ok {
		return models.MPosition{}, false
	}
	col, ok := gridIndex(c)
	if !ok {
		return models.MPosition{}, false
	}
	return models.MPosition{Row: row, Col: col}, true
}

// gridIndex accepts non-negative integral numbers only.
func gridIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int64:
		return int(n), n >= 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return gridIndex(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return gridIndex(f)
	}
	return 0, false
}
