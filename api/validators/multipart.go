package validators

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
)

const (
	bytesPerMB       = 1 << 20
	memoryBufferSize = 8 << 20
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Multipart is a parsed multipart form. Close releases the opened files and
// any temporary files the parser spilled to disk.
type Multipart struct {
	form  *multipart.Form
	files []multipart.File
}

// ParseMultipart reads a multipart body capped at maxMB megabytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxMB int) (*Multipart, error) {
	if maxMB <= 0 {
		maxMB = 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxMB)*bytesPerMB)
	if err := r.ParseMultipartForm(memoryBufferSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload too large").WithDetails(map[string]any{"max_mb": maxMB})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	return &Multipart{form: r.MultipartForm}, nil
}

func (m *Multipart) Close() {
	for _, f := range m.files {
		_ = f.Close()
	}
	if m.form != nil {
		_ = m.form.RemoveAll()
	}
}

// Has reports whether key was sent as a form value.
func (m *Multipart) Has(key string) bool {
	_, ok := m.form.Value[key]
	return ok
}

func (m *Multipart) Value(key string) string {
	if values := m.form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// OptionalString returns nil when key was not sent.
func (m *Multipart) OptionalString(key string) *string {
	if !m.Has(key) {
		return nil
	}
	v := m.Value(key)
	return &v
}

// Bool parses key as a boolean; nil when absent or empty.
func (m *Multipart) Bool(key string) (*bool, error) {
	raw := m.Value(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return &v, nil
}

// UUID parses key as a uuid; nil when absent or empty.
func (m *Multipart) UUID(key string) (*uuid.UUID, error) {
	raw := m.Value(key)
	if raw == "" {
		return nil, nil
	}
	id, err := ParseUUID(raw, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Raw returns the untrimmed bytes of key, for fields that carry JSON.
func (m *Multipart) Raw(key string) []byte {
	if values := m.form.Value[key]; len(values) > 0 {
		return []byte(values[0])
	}
	return nil
}

// JSON decodes key into dest. It reports false when key is absent.
func (m *Multipart) JSON(key string, dest any) (bool, error) {
	raw := m.Raw(key)
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json field").WithDetails(map[string]any{"field": key})
	}
	return true, nil
}

// Strings returns every value sent for key. A single value holding a JSON
// array is expanded.
func (m *Multipart) Strings(key string) ([]string, error) {
	values := m.form.Value[key]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(values[0]), &out); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid list").WithDetails(map[string]any{"field": key})
		}
		return out, nil
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

// Image returns the single image uploaded under key, or nil.
func (m *Multipart) Image(key string) (*storage.Upload, error) {
	headers := m.form.File[key]
	if len(headers) == 0 {
		return nil, nil
	}
	upload, err := m.open(key, headers[0])
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

// Images returns every image uploaded under key.
func (m *Multipart) Images(key string) ([]storage.Upload, error) {
	headers := m.form.File[key]
	out := make([]storage.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := m.open(key, header)
		if err != nil {
			return nil, err
		}
		out = append(out, upload)
	}
	return out, nil
}

func (m *Multipart) open(key string, header *multipart.FileHeader) (storage.Upload, error) {
	contentType, ok := imageTypes[strings.ToLower(filepath.Ext(header.Filename))]
	if !ok {
		return storage.Upload{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid image type").
			WithDetails(map[string]any{"field": key, "allowed": "png, jpeg, jpg"})
	}
	f, err := header.Open()
	if err != nil {
		return storage.Upload{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	m.files = append(m.files, f)
	return storage.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        f,
	}, nil
}
