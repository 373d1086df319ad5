package api

import (
	"errors"
	"strings"
	"time"

	"variantshare/internal/artifact"
	"variantshare/internal/exporter"
	"variantshare/internal/services"
	"variantshare/internal/userdb"
	"variantshare/internal/variant"
)

// FromSession converts a session's variant, lifecycle snapshot and last
// report to its API representation.
func FromSession(id string, v *variant.Variant, snap artifact.Snapshot, report exporter.Report, createdAt time.Time) Session {
	dto := Session{
		ID:         id,
		State:      string(snap.State),
		Format:     string(snap.Format),
		Mode:       string(snap.Mode),
		LastError:  snap.LastError,
		Generation: snap.Generation,
	}
	if v != nil {
		dto.VariantID = v.ID
		dto.VariantName = v.Name
		dto.ProcessID = v.Process.ID
		dto.Steps = len(v.Steps)
	}
	if snap.ArtifactName != "" {
		dto.Artifact = &ArtifactInfo{
			Name: snap.ArtifactName,
			MIME: snap.ArtifactMIME,
			Size: snap.ArtifactSize,
		}
	}
	if snap.PreviewToken != "" {
		dto.PreviewURL = PreviewPathPrefix + snap.PreviewToken
	}
	if snap.Generation > 0 {
		dto.Report = FromReport(report)
	}
	if !createdAt.IsZero() {
		dto.CreatedAt = createdAt.UTC().Format(dateTimeFormat)
	}
	if !snap.UpdatedAt.IsZero() {
		dto.UpdatedAt = snap.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromReport converts an exporter report.
func FromReport(report exporter.Report) *ExportReport {
	apps := report.AppTypes
	if apps == nil {
		apps = []string{}
	}
	return &ExportReport{
		Records:    report.Records,
		Rejected:   report.Rejected,
		Unresolved: report.Unresolved,
		AppTypes:   apps,
		DurationMS: report.Duration.Milliseconds(),
	}
}

// FromUser converts a directory entry.
func FromUser(user *userdb.User) User {
	if user == nil {
		return User{}
	}
	dto := User{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Department: strings.TrimSpace(user.Department),
	}
	if !user.CreatedAt.IsZero() {
		dto.CreatedAt = user.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !user.UpdatedAt.IsZero() {
		dto.UpdatedAt = user.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// NewError builds an error envelope, tagging it with the error's kind.
func NewError(err error) ErrorResponse {
	if err == nil {
		err = errors.New("unknown error")
	}
	return ErrorResponse{Error: ErrorBody{Message: err.Error(), Kind: kindLabel(err)}}
}

// Message builds an error envelope from plain text.
func Message(msg string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Message: msg}}
}

func kindLabel(err error) string {
	switch {
	case errors.Is(err, artifact.ErrBusy):
		return "busy"
	case errors.Is(err, artifact.ErrNotPreviewable):
		return "not_previewable"
	case errors.Is(err, artifact.ErrClosed):
		return "closed"
	}
	return services.Kind(err)
}
