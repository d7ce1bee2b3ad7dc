package files

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

var allowedTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
}

type FileInfo struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// Service stores uploaded documents under one directory and extracts text
// from the types that carry any. Rejections (bad extension, oversized
// payload, unsupported type) are reported as absent results, not errors; the
// caller turns them into user-facing responses.
type Service struct {
	uploadDir string
	maxSize   int64
	log       zerolog.Logger
}

func NewService(uploadDir string, maxSize int64, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Service{uploadDir: uploadDir, maxSize: maxSize, log: log}, nil
}

func (s *Service) MaxSize() int64 { return s.maxSize }

// TypeAllowed reports whether the file's extension is on the allow-list.
func (s *Service) TypeAllowed(name string) bool {
	_, ok := allowedTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Save validates and stores an upload. quoteID may be zero for files uploaded
// before their quote exists.
func (s *Service) Save(originalName string, content []byte, quoteID int64) (string, bool) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedTypes[ext]; !ok {
		s.log.Warn().Str("file", originalName).Str("ext", ext).Msg("file type not allowed")
		return "", false
	}
	if int64(len(content)) > s.maxSize {
		s.log.Warn().Str("file", originalName).Int("size", len(content)).Msg("file exceeds max upload size")
		return "", false
	}

	prefix := "temp"
	if quoteID > 0 {
		prefix = fmt.Sprintf("quote_%d", quoteID)
	}
	filename := fmt.Sprintf("%s_%s_%s%s", prefix, time.Now().Format("20060102_150405"), uuid.NewString()[:8], ext)
	path := filepath.Join(s.uploadDir, filename)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("save upload failed")
		return "", false
	}
	return path, true
}

// ExtractText reads the text content of a stored file. Only pdf and txt carry
// text; any other stored type is reported as unsupported rather than an error.
// The lookup is confined to the upload directory: only the base name of the
// argument is considered.
func (s *Service) ExtractText(path string) (string, bool) {
	path = filepath.Join(s.uploadDir, filepath.Base(path))
	if _, err := os.Stat(path); err != nil {
		s.log.Error().Str("path", path).Msg("file not found for extraction")
		return "", false
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := extractPDFText(path)
		if err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("pdf text extraction failed")
			return "", false
		}
		return text, true
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("txt read failed")
			return "", false
		}
		return string(data), true
	default:
		s.log.Warn().Str("path", path).Msg("text extraction not supported for file type")
		return "", false
	}
}

// extractPDFText concatenates the plain text of every page.
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb bytes.Buffer
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// Resolve maps a stored filename to its on-disk path and content type.
func (s *Service) Resolve(filename string) (string, string, bool) {
	// Keep lookups inside the upload directory.
	if filename != filepath.Base(filename) {
		return "", "", false
	}
	path := filepath.Join(s.uploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", "", false
	}
	contentType, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		contentType = "application/octet-stream"
	}
	return path, contentType, true
}

func (s *Service) Delete(filename string) bool {
	if filename != filepath.Base(filename) {
		return false
	}
	path := filepath.Join(s.uploadDir, filename)
	if err := os.Remove(path); err != nil {
		return false
	}
	return true
}

// ListForQuote returns the stored files whose names carry the quote prefix.
func (s *Service) ListForQuote(quoteID int64) []FileInfo {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		s.log.Error().Err(err).Msg("list uploads failed")
		return nil
	}

	prefix := fmt.Sprintf("quote_%d_", quoteID)
	var result []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, FileInfo{
			Filename: entry.Name(),
			Path:     filepath.Join(s.uploadDir, entry.Name()),
			Size:     info.Size(),
		})
	}
	return result
}
