package variant

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a variant document from path. Both YAML and JSON are accepted.
func Load(path string) (*Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variant: %w", err)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse variant %s: %w", path, err)
	}
	return v, nil
}

// Decode reads a variant document from r.
func Decode(r io.Reader) (*Variant, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read variant: %w", err)
	}
	return Parse(data)
}

// Parse decodes a variant document. Steps may be given either as a mapping
// keyed by step id or as a sequence of objects carrying an id; document order
// is preserved in both cases.
func Parse(data []byte) (*Variant, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty variant document")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("variant document must be a mapping")
	}

	v := &Variant{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		var err error
		switch key {
		case "id":
			v.ID = strings.TrimSpace(value.Value)
		case "name":
			v.Name = strings.TrimSpace(value.Value)
		case "process":
			v.Process, err = decodeProcess(value)
		case "counters":
			v.Counters, err = decodeCounters(value)
		case "appTypes":
			var labels []string
			err = value.Decode(&labels)
			for _, label := range labels {
				if label = strings.ToLower(strings.TrimSpace(label)); label != "" {
					v.AppTypes = append(v.AppTypes, label)
				}
			}
		case "steps":
			v.Steps, err = decodeSteps(value)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeProcess(node *yaml.Node) (Process, error) {
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return Process{}, err
	}
	return Process{
		ID:          fieldString(fields, "id"),
		Name:        fieldString(fields, "name"),
		Description: fieldString(fields, "description"),
	}, nil
}

func decodeCounters(node *yaml.Node) (Counters, error) {
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return Counters{}, err
	}
	var c Counters
	var err error
	ints := []struct {
		key string
		dst *int64
	}{
		{"createdAt", &c.CreatedAt},
		{"lastRunAt", &c.LastRunAt},
		{"minDuration", &c.MinDurationMS},
		{"maxDuration", &c.MaxDurationMS},
		{"avgDuration", &c.AvgDurationMS},
	}
	for _, f := range ints {
		if *f.dst, err = fieldInt(fields, f.key); err != nil {
			return Counters{}, err
		}
	}
	runs, err := fieldInt(fields, "runCount")
	if err != nil {
		return Counters{}, err
	}
	if runs < 0 {
		return Counters{}, fmt.Errorf("runCount: must be non-negative")
	}
	c.RunCount = int(runs)
	if c.Coverage, err = fieldFloat(fields, "coverage"); err != nil {
		return Counters{}, err
	}
	return c, nil
}

func decodeSteps(node *yaml.Node) ([]StepNode, error) {
	switch node.Kind {
	case yaml.MappingNode:
		steps := make([]StepNode, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			step, err := decodeStep(node.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", node.Content[i].Value, err)
			}
			step.ID = strings.TrimSpace(node.Content[i].Value)
			steps = append(steps, step)
		}
		return steps, nil
	case yaml.SequenceNode:
		steps := make([]StepNode, 0, len(node.Content))
		for i, item := range node.Content {
			step, err := decodeStep(item)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
			steps = append(steps, step)
		}
		return steps, nil
	default:
		return nil, errors.New("steps must be a mapping or a sequence")
	}
}

func decodeStep(node *yaml.Node) (StepNode, error) {
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return StepNode{}, err
	}
	step := StepNode{
		ID:                    fieldString(fields, "id"),
		Description:           fieldString(fields, "description"),
		TranslatedDescription: fieldString(fields, "translatedDescription"),
		ScreenshotKey:         fieldString(fields, "screenshot"),
		Locator:               fieldString(fields, "locator"),
		URL:                   fieldString(fields, "url"),
	}
	step.AppType, _ = ResolveAppType(fields)
	return step, nil
}
