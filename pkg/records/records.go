// Package records defines the generic record shape produced by the parsers:
// an unordered mapping from source field name to decoded JSON value.
//
// Numbers are expected as json.Number (parsers decode with UseNumber) but the
// accessors also accept float64, int64 and numeric strings, because event logs
// are not consistent about how identifiers are encoded (e.g. "userId":"39").
package records

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissing is returned by the Required* accessors when a field is absent,
// null, or an empty string.
var ErrMissing = errors.New("records: missing value")

// Record is a single decoded source object.
type Record map[string]any

// Has reports whether key is present and not JSON null.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// NullString returns the field as a nullable string. Numbers are rendered
// using their JSON text.
func (r Record) NullString(key string) (sql.NullString, error) {
	switch v := r[key].(type) {
	case nil:
		return sql.NullString{}, nil
	case string:
		return sql.NullString{String: v, Valid: true}, nil
	case json.Number:
		return sql.NullString{String: v.String(), Valid: true}, nil
	case float64:
		return sql.NullString{String: strconv.FormatFloat(v, 'f', -1, 64), Valid: true}, nil
	case bool:
		return sql.NullString{String: strconv.FormatBool(v), Valid: true}, nil
	default:
		return sql.NullString{}, fmt.Errorf("records: field %q: unsupported type %T for string", key, v)
	}
}

// NullFloat64 returns the field as a nullable float. Empty strings are null.
func (r Record) NullFloat64(key string) (sql.NullFloat64, error) {
	switch v := r[key].(type) {
	case nil:
		return sql.NullFloat64{}, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return sql.NullFloat64{}, fmt.Errorf("records: field %q: %w", key, err)
		}
		return sql.NullFloat64{Float64: f, Valid: true}, nil
	case float64:
		return sql.NullFloat64{Float64: v, Valid: true}, nil
	case int64:
		return sql.NullFloat64{Float64: float64(v), Valid: true}, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return sql.NullFloat64{}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return sql.NullFloat64{}, fmt.Errorf("records: field %q: %w", key, err)
		}
		return sql.NullFloat64{Float64: f, Valid: true}, nil
	default:
		return sql.NullFloat64{}, fmt.Errorf("records: field %q: unsupported type %T for float", key, v)
	}
}

// NullInt64 returns the field as a nullable integer. Integral floats such as
// 2000.0 are accepted; fractional values are an error.
func (r Record) NullInt64(key string) (sql.NullInt64, error) {
	switch v := r[key].(type) {
	case nil:
		return sql.NullInt64{}, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return sql.NullInt64{Int64: n, Valid: true}, nil
		}
		f, err := v.Float64()
		if err != nil {
			return sql.NullInt64{}, fmt.Errorf("records: field %q: %w", key, err)
		}
		return floatToInt(key, f)
	case float64:
		return floatToInt(key, v)
	case int64:
		return sql.NullInt64{Int64: v, Valid: true}, nil
	case int:
		return sql.NullInt64{Int64: int64(v), Valid: true}, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return sql.NullInt64{}, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return sql.NullInt64{}, fmt.Errorf("records: field %q: %w", key, err)
		}
		return sql.NullInt64{Int64: n, Valid: true}, nil
	default:
		return sql.NullInt64{}, fmt.Errorf("records: field %q: unsupported type %T for integer", key, v)
	}
}

func floatToInt(key string, f float64) (sql.NullInt64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return sql.NullInt64{}, fmt.Errorf("records: field %q: %v is not an integer", key, f)
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}, nil
}

// RequiredString is NullString for fields that must be present and non-empty.
func (r Record) RequiredString(key string) (string, error) {
	s, err := r.NullString(key)
	if err != nil {
		return "", err
	}
	if !s.Valid || s.String == "" {
		return "", fmt.Errorf("field %q: %w", key, ErrMissing)
	}
	return s.String, nil
}

// RequiredInt64 is NullInt64 for fields that must be present.
func (r Record) RequiredInt64(key string) (int64, error) {
	n, err := r.NullInt64(key)
	if err != nil {
		return 0, err
	}
	if !n.Valid {
		return 0, fmt.Errorf("field %q: %w", key, ErrMissing)
	}
	return n.Int64, nil
}
