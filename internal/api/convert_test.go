package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"variantshare/internal/artifact"
	"variantshare/internal/document"
	"variantshare/internal/exporter"
	"variantshare/internal/testsupport"
	"variantshare/internal/userdb"
)

func TestFromSessionIncludesArtifactAndPreview(t *testing.T) {
	v := testsupport.Variant(3)
	updated := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	snap := artifact.Snapshot{
		State:        artifact.StatePreviewable,
		Format:       document.FormatPDF,
		Mode:         document.ModeVariant,
		ArtifactName: "variant_Invoice_approval.pdf",
		ArtifactMIME: document.MIMEPDF,
		ArtifactSize: 1024,
		PreviewToken: "tok-1",
		Generation:   2,
		UpdatedAt:    updated,
	}
	report := exporter.Report{Records: 3, Rejected: 1, Duration: 1500 * time.Millisecond}

	dto := FromSession("sess-1", v, snap, report, updated.Add(-time.Minute))
	if dto.PreviewURL != "/api/previews/tok-1" {
		t.Fatalf("unexpected preview url %q", dto.PreviewURL)
	}
	if dto.Artifact == nil || dto.Artifact.Size != 1024 || dto.Artifact.MIME != "application/pdf" {
		t.Fatalf("unexpected artifact info %+v", dto.Artifact)
	}
	if dto.Steps != 3 || dto.VariantID != "variant-1" || dto.ProcessID != "process-1" {
		t.Fatalf("unexpected variant fields %+v", dto)
	}
	if dto.Report == nil || dto.Report.Rejected != 1 || dto.Report.DurationMS != 1500 || dto.Report.AppTypes == nil {
		t.Fatalf("unexpected report %+v", dto.Report)
	}
	if dto.UpdatedAt != "2024-03-01T10:30:00.000Z" {
		t.Fatalf("unexpected updatedAt %q", dto.UpdatedAt)
	}
}

func TestFromSessionIdleOmitsArtifact(t *testing.T) {
	dto := FromSession("sess-2", testsupport.Variant(1), artifact.Snapshot{State: artifact.StateIdle}, exporter.Report{}, time.Time{})
	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"artifact", "previewUrl", "report", "createdAt"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("expected %q to be omitted: %s", key, raw)
		}
	}
	if fields["state"] != "idle" {
		t.Fatalf("unexpected state %v", fields["state"])
	}
}

func TestNewErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{fmt.Errorf("generate: %w", artifact.ErrBusy), "busy"},
		{artifact.ErrNotPreviewable, "not_previewable"},
		{&document.BuildError{Format: document.FormatPDF, Kind: document.KindRemoteGenerationFailed}, "external"},
		{&document.BuildError{Format: document.FormatExcel, Kind: document.KindMissingScreenshot, StepIndex: 2}, "build"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range tests {
		if got := NewError(tc.err).Error.Kind; got != tc.kind {
			t.Fatalf("NewError(%v) kind = %q, want %q", tc.err, got, tc.kind)
		}
	}
}

func TestFromUser(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dto := FromUser(&userdb.User{ID: 7, Email: "ana@example.com", Name: "Ana", CreatedAt: created})
	if dto.Email != "ana@example.com" || dto.CreatedAt != "2024-01-02T03:04:05.000Z" || dto.UpdatedAt != "" {
		t.Fatalf("unexpected user dto %+v", dto)
	}
	if FromUser(nil).Email != "" {
		t.Fatal("expected zero dto for nil user")
	}
}
