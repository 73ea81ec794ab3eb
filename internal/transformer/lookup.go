package transformer

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Lookup resolves a played song to the ids of a loaded song and its artist.
// Matching is exact on title, artist name and duration. found is false when
// nothing matches.
type Lookup interface {
	LookupSong(ctx context.Context, title, artist string, duration float64) (songID, artistID string, found bool, err error)
}

type lookupResult struct {
	songID, artistID string
	found            bool
}

// CachedLookup memoizes another Lookup. Song and artist rows are not written
// while event logs are processed, so answers (including misses) stay valid
// for the whole log phase. Errors are not cached.
//
// Not safe for concurrent use.
type CachedLookup struct {
	next  Lookup
	cache map[xxh3.Uint128]lookupResult

	Hits, Misses int
}

// NewCachedLookup wraps next.
func NewCachedLookup(next Lookup) *CachedLookup {
	return &CachedLookup{next: next, cache: make(map[xxh3.Uint128]lookupResult)}
}

// Reset swaps the underlying lookup and keeps cached answers. The driver
// calls it when each log file opens its own transaction.
func (c *CachedLookup) Reset(next Lookup) { c.next = next }

// LookupSong implements Lookup.
func (c *CachedLookup) LookupSong(ctx context.Context, title, artist string, duration float64) (string, string, bool, error) {
	key := lookupKey(title, artist, duration)
	if r, ok := c.cache[key]; ok {
		c.Hits++
		return r.songID, r.artistID, r.found, nil
	}
	c.Misses++
	songID, artistID, found, err := c.next.LookupSong(ctx, title, artist, duration)
	if err != nil {
		return "", "", false, err
	}
	c.cache[key] = lookupResult{songID: songID, artistID: artistID, found: found}
	return songID, artistID, found, nil
}

// lookupKey hashes the match triple. Strings are length-prefixed so that
// ("ab","c") and ("a","bc") differ.
func lookupKey(title, artist string, duration float64) xxh3.Uint128 {
	buf := make([]byte, 0, 24+len(title)+len(artist))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(title)))
	buf = append(buf, title...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(artist)))
	buf = append(buf, artist...)
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(duration))
	return xxh3.Hash128(buf)
}
