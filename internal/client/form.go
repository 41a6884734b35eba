package client

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// Form is a multipart/form-data request body. Passing a *Form to Post or
// Put switches the Content-Type from application/json to multipart with
// the encoder's boundary, which is how image uploads (avatars, receipts)
// reach the backend.
type Form struct {
	fields map[string]string
	files  []formFile
}

type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	return &Form{fields: make(map[string]string)}
}

// Set adds a plain text field.
func (f *Form) Set(key, value string) {
	f.fields[key] = value
}

// AddFile attaches a file part. contentType may be empty, in which case
// application/octet-stream is used.
func (f *Form) AddFile(field, name, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f.files = append(f.files, formFile{field: field, name: name, contentType: contentType, data: data})
}

// encode renders the form body. Fields are written in sorted order so the
// encoding is deterministic.
func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, f.fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %q: %w", k, err)
		}
	}

	for _, file := range f.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
			escapeQuotes(file.field), escapeQuotes(file.name)))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form part %q: %w", file.field, err)
		}
		if _, err := part.Write(file.data); err != nil {
			return nil, "", fmt.Errorf("failed to write form part %q: %w", file.field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
