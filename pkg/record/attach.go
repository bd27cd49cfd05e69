package record

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
)

var imageMIMEByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".ico":  "image/x-icon",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// Attach records data as an attachment in the current container, classifying
// it by shape:
//
//   - []byte: binary payload, base64-encoded with a detected MIME type
//   - string naming an existing image file: file bytes, encoded as above
//   - map/slice/struct: indented JSON, falling back to text on marshal error
//   - other strings: plain text
//   - anything else: best-effort textual representation
//
// Textual and binary payloads alike are cut to the process-wide byte budget;
// truncation adds a " (truncated)" suffix to the label. Attach never panics
// and never aborts the test: any classification or encoding failure degrades
// to a text attachment describing the error. Without an active execution the
// call is a no-op.
func Attach(ctx context.Context, data any, label string) {
	attach(ctx, data, label, "")
}

// AttachMIME is Attach with an explicit MIME type for binary payloads.
func AttachMIME(ctx context.Context, data any, label, mime string) {
	attach(ctx, data, label, mime)
}

func attach(ctx context.Context, data any, label, mime string) {
	exec := execution.FromContext(ctx)
	if exec == nil {
		return
	}
	exec.AddEntry(buildAttachment(data, label, mime))
}

func buildAttachment(data any, label, mime string) (entry *report.Entry) {
	defer func() {
		if r := recover(); r != nil {
			entry = report.NewAttachment(label, report.ContentText, fmt.Sprintf("ERROR while attaching data: %v", r))
		}
	}()

	contentType := report.ContentText
	formatted := ""
	note := ""

	switch v := data.(type) {
	case []byte:
		b, truncated := truncateBytes(v)
		m := mime
		if m == "" {
			m = http.DetectContentType(b)
		}
		contentType = report.ContentImage
		formatted = dataURL(m, b)
		if truncated {
			note = " (truncated)"
		}

	case string:
		if raw, m, ok := readImageFile(v); ok {
			b, truncated := truncateBytes(raw)
			if mime != "" {
				m = mime
			}
			contentType = report.ContentImage
			formatted = dataURL(m, b)
			if truncated {
				note = " (truncated from file)"
			}
		} else {
			text, truncated := truncateText(v)
			formatted = text
			if truncated {
				note = " (truncated)"
			}
		}

	default:
		if isStructured(data) {
			serialized, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				text, truncated := truncateText(fmt.Sprintf("%+v", data))
				formatted = text
				if truncated {
					note = " (truncated)"
				}
				break
			}
			contentType = report.ContentJSON
			text, truncated := truncateText(string(serialized))
			formatted = text
			if truncated {
				note = " (truncated)"
			}
		} else {
			text, truncated := truncateText(fmt.Sprint(data))
			formatted = text
			if truncated {
				note = " (truncated)"
			}
		}
	}

	return report.NewAttachment(label+note, contentType, formatted)
}

func dataURL(mime string, b []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(b))
}

// readImageFile returns the contents of s when it names an existing regular
// file with a recognized image extension.
func readImageFile(s string) ([]byte, string, bool) {
	if s == "" || strings.ContainsAny(s, "\n\x00") {
		return nil, "", false
	}
	mime, ok := imageMIMEByExt[strings.ToLower(filepath.Ext(s))]
	if !ok {
		return nil, "", false
	}
	info, err := os.Stat(s)
	if err != nil || !info.Mode().IsRegular() {
		return nil, "", false
	}
	raw, err := os.ReadFile(s)
	if err != nil {
		return nil, "", false
	}
	return raw, mime, true
}

// isStructured reports whether data is a container shape (mapping, sequence
// or struct) that should be serialized as JSON.
func isStructured(data any) bool {
	if data == nil {
		return false
	}
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}
