// Package datasource defines where raw input bytes come from. Parsers depend
// on Source rather than on os.Open so tests can feed in-memory inputs.
package datasource

import (
	"context"
	"io"
)

// Source opens a readable stream of input bytes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
