package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"execsummary-backend/internal/extract"
	"execsummary-backend/internal/shared/metrics"
	"execsummary-backend/internal/shared/storage/object"
	"execsummary-backend/internal/shared/telemetry"
	"execsummary-backend/internal/sources"
)

const MaxUploadBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds the 5 MiB limit")
	ErrInvalidInput    = errors.New("invalid input")
	ErrStorage         = errors.New("storage operation failed")
)

var resumeTypes = map[string]struct{}{
	extract.MimePDF:  {},
	extract.MimeDOC:  {},
	extract.MimeDOCX: {},
}

var screenshotTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
}

// ResumeAttacher records an uploaded resume on the candidate and returns the
// key of the resume it replaced.
type ResumeAttacher interface {
	AttachResume(ctx context.Context, ownerID, id, path, mimeType, text string) (string, error)
}

// ScreenshotRecorder records a screenshot key on a LinkedIn section.
type ScreenshotRecorder interface {
	SetSectionScreenshot(ctx context.Context, candidateID string, t sources.SectionType, path string) (sources.LinkedInSection, error)
}

// TextExtractor turns a document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType, fileName string) (string, error)
}

// File is one uploaded part. Size is the declared size; the body is still
// read through a limit.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ResumeResult struct {
	Path          string `json:"path"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	SizeBytes     int64  `json:"sizeBytes"`
	TextExtracted bool   `json:"textExtracted"`
	TextLength    int    `json:"textLength"`
}

type Service struct {
	Store            object.ObjectStore
	Candidates       ResumeAttacher
	Sections         ScreenshotRecorder
	Extractor        TextExtractor
	ResumePrefix     string
	ScreenshotPrefix string
}

// UploadResume validates, stores and extracts a resume. Invalid files are
// rejected before the object store is touched.
func (s *Service) UploadResume(ctx context.Context, ownerID, candidateID string, f File) (ResumeResult, error) {
	mimeType := extract.NormalizeMimeType(f.ContentType, f.Name)
	if _, ok := resumeTypes[mimeType]; !ok {
		return ResumeResult{}, reject("resume", fmt.Errorf("%w: %s", ErrUnsupportedType, displayType(f.ContentType, f.Name)))
	}
	data, err := readLimited(f)
	if err != nil {
		return ResumeResult{}, reject("resume", err)
	}
	key, err := object.NewKey(s.ResumePrefix, candidateID, f.Name)
	if err != nil {
		return ResumeResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	text := ""
	if s.Extractor != nil {
		text, err = s.Extractor.ExtractText(ctx, data, mimeType, f.Name)
		if err != nil {
			level := telemetry.Warn
			if errors.Is(err, extract.ErrUnsupportedType) {
				level = telemetry.Info
			}
			level("uploads.extract_skipped", map[string]any{
				"candidate_id": candidateID,
				"mime_type":    mimeType,
				"error":        err.Error(),
			})
			text = ""
		}
	}

	if _, err := s.Store.Put(ctx, key, mimeType, bytes.NewReader(data)); err != nil {
		return ResumeResult{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	prev, err := s.Candidates.AttachResume(ctx, ownerID, candidateID, key, mimeType, text)
	if err != nil {
		s.deleteObject(ctx, candidateID, key)
		return ResumeResult{}, err
	}
	if prev != "" && prev != key {
		s.deleteObject(ctx, candidateID, prev)
	}

	telemetry.Info("uploads.resume_stored", map[string]any{
		"candidate_id":   candidateID,
		"mime_type":      mimeType,
		"size_bytes":     len(data),
		"text_extracted": text != "",
	})
	return ResumeResult{
		Path:          key,
		FileName:      f.Name,
		MimeType:      mimeType,
		SizeBytes:     int64(len(data)),
		TextExtracted: text != "",
		TextLength:    len(text),
	}, nil
}

// UploadScreenshot stores a PNG or JPEG screenshot for a LinkedIn section.
func (s *Service) UploadScreenshot(ctx context.Context, candidateID string, t sources.SectionType, f File) (sources.LinkedInSection, error) {
	if _, err := sources.ParseSectionType(string(t)); err != nil {
		return sources.LinkedInSection{}, err
	}
	mimeType := imageType(f.ContentType, f.Name)
	if _, ok := screenshotTypes[mimeType]; !ok {
		return sources.LinkedInSection{}, reject("screenshot", fmt.Errorf("%w: %s", ErrUnsupportedType, displayType(f.ContentType, f.Name)))
	}
	data, err := readLimited(f)
	if err != nil {
		return sources.LinkedInSection{}, reject("screenshot", err)
	}
	key, err := object.NewKey(s.ScreenshotPrefix, candidateID, f.Name)
	if err != nil {
		return sources.LinkedInSection{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.Store.Put(ctx, key, mimeType, bytes.NewReader(data)); err != nil {
		return sources.LinkedInSection{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	section, err := s.Sections.SetSectionScreenshot(ctx, candidateID, t, key)
	if err != nil {
		s.deleteObject(ctx, candidateID, key)
		return sources.LinkedInSection{}, err
	}
	return section, nil
}

func readLimited(f File) ([]byte, error) {
	if f.Size > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if f.Body == nil {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", ErrInvalidInput, err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return data, nil
}

func reject(kind string, err error) error {
	reason := "invalid"
	switch {
	case errors.Is(err, ErrUnsupportedType):
		reason = "unsupported_type"
	case errors.Is(err, ErrTooLarge):
		reason = "too_large"
	}
	metrics.IncUploadRejected(kind + "_" + reason)
	return err
}

func imageType(contentType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if clean == "image/jpg" {
		clean = "image/jpeg"
	}
	if clean != "" && clean != "application/octet-stream" {
		return clean
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return clean
}

func displayType(contentType, fileName string) string {
	if ct := strings.TrimSpace(contentType); ct != "" {
		return ct
	}
	return filepath.Ext(fileName)
}

func (s *Service) deleteObject(ctx context.Context, candidateID, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("uploads.delete_object_failed", map[string]any{
			"candidate_id": candidateID,
			"key":          key,
			"error":        err.Error(),
		})
	}
}
