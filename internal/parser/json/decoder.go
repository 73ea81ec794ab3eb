// Package json decodes JSON-lines input (one object per line) into
// records.Record values.
//
//	{"song_id":"SOAAAQN12AB01856D3","title":"Campeones De La Vida", ...}
//	{"song_id":"SOAACTC12AB0186A20","title":"Christmas Tears Will Fall", ...}
//
// Decoding is strict: a malformed line, or a top-level value that is not an
// object, fails the whole input. Numbers are kept as json.Number so that the
// transformers decide how to type them.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sparkify/internal/datasource"
	"sparkify/internal/datasource/file"
	"sparkify/pkg/records"
)

// Decoder wraps encoding/json.Decoder to provide a record-oriented API.
type Decoder struct {
	dec *json.Decoder
	n   int
}

// NewDecoder constructs a Decoder reading from r. A leading byte order mark
// is consumed; UTF-16 input announced by a BOM is transcoded to UTF-8.
func NewDecoder(r io.Reader) *Decoder {
	r = transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d}
}

// Next returns the next object in the stream, or io.EOF when it is exhausted.
func (d *Decoder) Next() (records.Record, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("json parser: record %d: decode: %w", d.n+1, err)
	}
	d.n++

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("json parser: record %d: top-level %T is not an object", d.n, raw)
	}
	return records.Record(m), nil
}

// DecodeAll reads every object from r in order.
func DecodeAll(r io.Reader) ([]records.Record, error) {
	d := NewDecoder(r)
	var out []records.Record
	for {
		rec, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// Parse opens src and decodes all of its records.
func Parse(ctx context.Context, src datasource.Source) ([]records.Record, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeAll(rc)
}

// ParseFile decodes the JSON-lines file at path. Errors carry the path.
func ParseFile(ctx context.Context, path string) ([]records.Record, error) {
	recs, err := Parse(ctx, file.NewLocal(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recs, nil
}
