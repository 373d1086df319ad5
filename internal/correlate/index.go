package correlate

import (
	"encoding/binary"
	"hash/fnv"
	"sort"

	"variantshare/internal/variant"
)

// Index maps screenshot keys (timestamp or hash) to records.
type Index struct {
	fingerprint uint64
	byKey       map[string]int
	records     []variant.ScreenshotRecord
	ambiguous   map[string]struct{}
}

// NewIndex builds the lookup map in one pass. A key claimed by two records
// with different payloads is ambiguous and never resolves.
func NewIndex(records []variant.ScreenshotRecord) *Index {
	idx := &Index{
		fingerprint: Fingerprint(records),
		byKey:       make(map[string]int, len(records)*2),
		records:     records,
		ambiguous:   make(map[string]struct{}),
	}
	for i, record := range records {
		for _, key := range record.Keys() {
			if _, bad := idx.ambiguous[key]; bad {
				continue
			}
			if prev, ok := idx.byKey[key]; ok {
				if records[prev].Image != record.Image {
					delete(idx.byKey, key)
					idx.ambiguous[key] = struct{}{}
				}
				continue
			}
			idx.byKey[key] = i
		}
	}
	return idx
}

// Lookup returns the record registered under key.
func (i *Index) Lookup(key string) (variant.ScreenshotRecord, bool) {
	if i == nil || key == "" {
		return variant.ScreenshotRecord{}, false
	}
	pos, ok := i.byKey[key]
	if !ok {
		return variant.ScreenshotRecord{}, false
	}
	return i.records[pos], true
}

// Ambiguous reports whether key matched conflicting records.
func (i *Index) Ambiguous(key string) bool {
	if i == nil {
		return false
	}
	_, ok := i.ambiguous[key]
	return ok
}

// Len returns the number of resolvable keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byKey)
}

// Fingerprint summarises a record set independent of order.
func Fingerprint(records []variant.ScreenshotRecord) uint64 {
	sums := make([]uint64, 0, len(records))
	for _, record := range records {
		h := fnv.New64a()
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(record.Timestamp))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(record.Hash))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(record.Image))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(record.Description))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(record.AppType))
		sums = append(sums, h.Sum64())
	}
	sort.Slice(sums, func(a, b int) bool { return sums[a] < sums[b] })
	h := fnv.New64a()
	var buf [8]byte
	for _, sum := range sums {
		binary.LittleEndian.PutUint64(buf[:], sum)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
