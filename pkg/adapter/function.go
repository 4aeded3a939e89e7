package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Event is an incoming request from a function host.
type Event struct {
	HTTPMethod      string            `json:"httpMethod"`
	Headers         map[string]string `json:"headers"`
	RawURL          string            `json:"rawUrl"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// FunctionResponse is the reply a function host expects.
type FunctionResponse struct {
	StatusCode        int                 `json:"statusCode"`
	Headers           map[string]string   `json:"headers"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders,omitempty"`
	Body              string              `json:"body"`
	IsBase64Encoded   bool                `json:"isBase64Encoded"`
}

// knownBinaryMediaTypes are returned base64 encoded.
var knownBinaryMediaTypes = map[string]bool{
	"application/octet-stream": true,
	"application/pdf":          true,
	"application/zip":          true,
	"application/gzip":         true,
	"application/wasm":         true,
	"audio/3gpp":               true,
	"audio/aac":                true,
	"audio/midi":               true,
	"audio/mpeg":               true,
	"audio/ogg":                true,
	"audio/opus":               true,
	"audio/wav":                true,
	"audio/webm":               true,
	"font/otf":                 true,
	"font/ttf":                 true,
	"font/woff":                true,
	"font/woff2":               true,
	"image/avif":               true,
	"image/bmp":                true,
	"image/gif":                true,
	"image/heif":               true,
	"image/jpeg":               true,
	"image/png":                true,
	"image/tiff":               true,
	"image/vnd.microsoft.icon": true,
	"image/webp":               true,
	"video/mp4":                true,
	"video/mpeg":               true,
	"video/ogg":                true,
	"video/webm":               true,
}

// IsBinary reports whether contentType is in the known binary set or in
// extra.
func IsBinary(contentType string, extra []string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	if knownBinaryMediaTypes[mediaType] {
		return true
	}
	for _, t := range extra {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

// FunctionHandler serves function host events with an http.Handler.
type FunctionHandler struct {
	Handler http.Handler

	// BinaryMediaTypes extends the known binary set.
	BinaryMediaTypes []string
}

// Handle converts ev to a request, serves it, and converts the reply.
func (f *FunctionHandler) Handle(ctx context.Context, ev Event) (FunctionResponse, error) {
	req, err := f.request(ctx, ev)
	if err != nil {
		return FunctionResponse{}, err
	}
	rec := newRecorder()
	f.Handler.ServeHTTP(rec, req)
	return f.response(rec), nil
}

func (f *FunctionHandler) request(ctx context.Context, ev Event) (*http.Request, error) {
	method := ev.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead && ev.Body != "" {
		if ev.IsBase64Encoded {
			b, err := base64.StdEncoding.DecodeString(ev.Body)
			if err != nil {
				return nil, fmt.Errorf("adapter: decode event body: %w", err)
			}
			body = bytes.NewReader(b)
		} else {
			body = strings.NewReader(ev.Body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, ev.RawURL, body)
	if err != nil {
		return nil, fmt.Errorf("adapter: build request: %w", err)
	}
	if req.Body == nil {
		req.Body = http.NoBody
	}
	for k, v := range ev.Headers {
		req.Header.Set(k, v)
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	return req, nil
}

func (f *FunctionHandler) response(rec *recorder) FunctionResponse {
	out := FunctionResponse{
		StatusCode: rec.status,
		Headers:    make(map[string]string, len(rec.header)),
	}
	for k, v := range rec.header {
		if http.CanonicalHeaderKey(k) == "Set-Cookie" {
			out.MultiValueHeaders = map[string][]string{"set-cookie": append([]string(nil), v...)}
			continue
		}
		out.Headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}

	if IsBinary(rec.header.Get("Content-Type"), f.BinaryMediaTypes) {
		out.Body = base64.StdEncoding.EncodeToString(rec.body.Bytes())
		out.IsBase64Encoded = true
	} else {
		out.Body = rec.body.String()
	}
	return out
}

// recorder is a minimal in-memory ResponseWriter.
type recorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}
