package document

import (
	"strings"

	"variantshare/internal/timefmt"
	"variantshare/internal/variant"
)

// Metadata holds the formatted summary shown alongside the steps.
type Metadata struct {
	ProcessID          string
	ProcessName        string
	ProcessDescription string
	VariantID          string
	VariantName        string
	InvolvedApps       string
	CreatedOn          string
	LastRunOn          string
	MaxDuration        string
	AvgDuration        string
	MinDuration        string
	Coverage           string
	RunCount           string
}

// NewMetadata formats a variant's counters. apps is the aggregated
// application type list in order of first appearance.
func NewMetadata(v *variant.Variant, apps []string, f *timefmt.Formatter) Metadata {
	if v == nil {
		return Metadata{}
	}
	c := v.Counters
	m := Metadata{
		ProcessID:          v.Process.ID,
		ProcessName:        v.Process.Name,
		ProcessDescription: v.Process.Description,
		VariantID:          v.ID,
		VariantName:        v.Name,
		InvolvedApps:       strings.Join(apps, ", "),
		MaxDuration:        timefmt.Duration(c.MaxDurationMS),
		AvgDuration:        timefmt.Duration(c.AvgDurationMS),
		MinDuration:        timefmt.Duration(c.MinDurationMS),
		RunCount:           timefmt.RunCount(c.RunCount),
	}
	if f != nil {
		m.CreatedOn = f.Date(c.CreatedAt)
		m.LastRunOn = f.Date(c.LastRunAt)
		m.Coverage = f.Coverage(c.Coverage)
	}
	return m
}

// Pairs returns the metadata as ordered label/value rows.
func (m Metadata) Pairs() [][2]string {
	return [][2]string{
		{"Process Name", m.ProcessName},
		{"Process Description", m.ProcessDescription},
		{"Variant Name", m.VariantName},
		{"Involved Apps", m.InvolvedApps},
		{"Created On", m.CreatedOn},
		{"Last Run On", m.LastRunOn},
		{"Max Duration", m.MaxDuration},
		{"Avg Duration", m.AvgDuration},
		{"Min Duration", m.MinDuration},
		{"Coverage", m.Coverage},
		{"Run Count", m.RunCount},
	}
}
