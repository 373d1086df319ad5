package variant

import (
	"errors"
	"fmt"
	"strings"
)

// Rejection records a search document that could not be converted to a
// ScreenshotRecord.
type Rejection struct {
	Index  int
	Reason string
}

// ParseRecord converts one untyped search document into a ScreenshotRecord.
// A record must carry a timestamp or hash so steps can reference it, and a
// screenshot payload, when present, must decode to an image.
func ParseRecord(fields map[string]any) (ScreenshotRecord, error) {
	if fields == nil {
		return ScreenshotRecord{}, errors.New("empty document")
	}
	ts, err := fieldInt(fields, "timestamp")
	if err != nil {
		return ScreenshotRecord{}, err
	}
	record := ScreenshotRecord{
		Timestamp:   ts,
		Hash:        fieldString(fields, "hash"),
		Image:       fieldString(fields, "screenshot"),
		Description: fieldString(fields, "description"),
	}
	record.AppType, _ = ResolveAppType(fields)
	if record.Timestamp == 0 && record.Hash == "" {
		return ScreenshotRecord{}, errors.New("missing timestamp and hash")
	}
	if strings.TrimSpace(record.Image) != "" {
		if _, _, err := record.DecodeImage(); err != nil {
			return ScreenshotRecord{}, err
		}
	}
	return record, nil
}

// ParseRecords converts a batch of search documents, returning the accepted
// records in input order alongside the rejected ones.
func ParseRecords(docs []map[string]any) ([]ScreenshotRecord, []Rejection) {
	records := make([]ScreenshotRecord, 0, len(docs))
	var rejected []Rejection
	for i, doc := range docs {
		record, err := ParseRecord(doc)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		records = append(records, record)
	}
	return records, rejected
}

// String implements fmt.Stringer.
func (r Rejection) String() string {
	return fmt.Sprintf("document %d: %s", r.Index, r.Reason)
}
