package testsupport

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"variantshare/internal/variant"
)

// PNG renders a small solid image.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PNGBase64 returns PNG encoded for a search index document.
func PNGBase64(t testing.TB, w, h int) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(PNG(t, w, h))
}

// Variant builds a variant with n steps alternating between the given app
// types. Step k references screenshot key 1700000000000+k.
func Variant(n int, appTypes ...string) *variant.Variant {
	if len(appTypes) == 0 {
		appTypes = []string{"web"}
	}
	v := &variant.Variant{
		ID:   "variant-1",
		Name: "Invoice approval",
		Process: variant.Process{
			ID:          "process-1",
			Name:        "Accounts payable",
			Description: "Approve supplier invoices",
		},
		Counters: variant.Counters{
			CreatedAt:     1699956800000,
			LastRunAt:     1700043200000,
			MinDurationMS: 61000,
			MaxDurationMS: 3661000,
			AvgDurationMS: 120000,
			RunCount:      5,
			Coverage:      0.425,
		},
	}
	for k := 1; k <= n; k++ {
		v.Steps = append(v.Steps, variant.StepNode{
			ID:                    fmt.Sprintf("step-%d", k),
			Description:           fmt.Sprintf("Step %d description", k),
			TranslatedDescription: fmt.Sprintf("Descripcion paso %d", k),
			ScreenshotKey:         ScreenshotKey(k),
			AppType:               appTypes[(k-1)%len(appTypes)],
			Locator:               fmt.Sprintf("#field-%d", k),
			URL:                   fmt.Sprintf("https://app.example.com/%d", k),
		})
	}
	return v
}

// ScreenshotKey returns the key used by Variant for step k.
func ScreenshotKey(k int) string {
	return fmt.Sprintf("%d", 1700000000000+int64(k))
}

// Records returns one resolvable screenshot record per step, skipping the
// 1-based steps listed in missing.
func Records(t testing.TB, v *variant.Variant, missing ...int) []variant.ScreenshotRecord {
	t.Helper()

	skip := make(map[int]struct{}, len(missing))
	for _, k := range missing {
		skip[k] = struct{}{}
	}
	payload := PNGBase64(t, 32, 24)
	var records []variant.ScreenshotRecord
	for i, step := range v.Steps {
		if _, ok := skip[i+1]; ok {
			continue
		}
		records = append(records, variant.ScreenshotRecord{
			Timestamp:   1700000000000 + int64(i+1),
			Image:       payload,
			Description: "captured " + step.ID,
			AppType:     step.AppType,
		})
	}
	return records
}

// Documents renders records as raw search hits, the shape the index returns.
func Documents(records []variant.ScreenshotRecord) []map[string]any {
	docs := make([]map[string]any, 0, len(records))
	for _, r := range records {
		docs = append(docs, map[string]any{
			"timestamp":       r.Timestamp,
			"hash":            r.Hash,
			"screenshot":      r.Image,
			"description":     r.Description,
			"applicationType": r.AppType,
		})
	}
	return docs
}
