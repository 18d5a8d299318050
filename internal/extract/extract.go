package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"execsummary-backend/internal/shared/telemetry"
)

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedType is returned for formats text cannot be extracted from.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrTimeout is returned when every PDF attempt ran past the time limit.
	ErrTimeout = errors.New("text extraction timed out")
)

// Extractor turns uploaded resumes into plain text. PDF parsing runs under
// a wall-clock limit and is retried a fixed number of times.
type Extractor struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration

	pdfText func([]byte) (string, error)
}

// New builds an Extractor. Non-positive timeout disables the limit.
func New(timeout time.Duration, retries int, retryDelay time.Duration) *Extractor {
	if retries < 0 {
		retries = 0
	}
	return &Extractor{
		Timeout:    timeout,
		Retries:    retries,
		RetryDelay: retryDelay,
		pdfText:    extractPDF,
	}
}

// ExtractText extracts and cleans text from an in-memory document.
func (e *Extractor) ExtractText(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch NormalizeMimeType(mimeType, fileName) {
	case MimePDF:
		text, err := e.extractPDFWithRetry(ctx, data)
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	case MimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return "", fmt.Errorf("extract docx: %w", err)
		}
		return CleanText(text), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

func (e *Extractor) extractPDFWithRetry(ctx context.Context, data []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= e.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(e.RetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		text, err := e.pdfOnce(ctx, data)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		lastErr = err
		telemetry.Warn("extract.pdf_attempt_failed", map[string]any{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}
	return "", fmt.Errorf("extract pdf: %w", lastErr)
}

type pdfResult struct {
	text string
	err  error
}

func (e *Extractor) pdfOnce(ctx context.Context, data []byte) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	parse := e.pdfText
	if parse == nil {
		parse = extractPDF
	}

	done := make(chan pdfResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- pdfResult{err: fmt.Errorf("pdf parser panic: %v", rec)}
			}
		}()
		text, err := parse(data)
		done <- pdfResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML keeps character data and turns paragraph and break ends into newlines.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "br":
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			case "tab":
				buf.WriteString("\t")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// NormalizeMimeType maps a declared content type, or the file extension
// when the declared type is missing or generic, to one of the Mime constants.
func NormalizeMimeType(mimeType string, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimePDF, MimeDOC, MimeDOCX:
		return clean
	case "", "application/octet-stream", "application/zip", "binary/octet-stream":
	default:
		return clean
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".doc":
		return MimeDOC
	case ".docx":
		return MimeDOCX
	default:
		return clean
	}
}
