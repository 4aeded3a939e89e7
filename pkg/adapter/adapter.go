// Package adapter turns pipeline results into wire responses, either on a
// net/http ResponseWriter or in the event shape used by function hosts.
package adapter

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vango-dev/meridian/pkg/result"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	textContentType = "text/plain; charset=utf-8"
)

// NotFound is the fixed response for unmatched routes.
func NotFound() *result.Response {
	return result.Text(http.StatusNotFound, "Not found")
}

// ToResponse converts any result into a complete response.
func ToResponse(res result.Result) (*result.Response, error) {
	switch res.Kind {
	case result.KindResponse:
		if res.Response == nil {
			return nil, fmt.Errorf("adapter: response result without response")
		}
		return res.Response, nil

	case result.KindHTML:
		ri := res.Init
		if ri == nil {
			ri = result.NewInit()
		}
		status := ri.Status
		if status == 0 {
			status = http.StatusOK
		}
		resp := result.NewResponse(status, []byte(res.HTML))
		for k, v := range ri.Header {
			resp.Header[k] = append([]string(nil), v...)
		}
		if resp.Header.Get("Content-Type") == "" {
			resp.Header.Set("Content-Type", htmlContentType)
		}
		resp.Header.Set("Content-Length", strconv.Itoa(len(resp.Body)))
		return resp, nil

	case result.KindSimple:
		body := []byte(res.Simple.Body)
		if res.Simple.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(res.Simple.Body)
			if err != nil {
				return nil, fmt.Errorf("adapter: decode body: %w", err)
			}
			body = decoded
		}
		resp := result.NewResponse(http.StatusOK, body)
		ct := res.Simple.ContentType
		if ct == "" {
			ct = textContentType
		}
		resp.Header.Set("Content-Type", ct)
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
		return resp, nil

	default:
		return nil, fmt.Errorf("adapter: unknown result kind %v", res.Kind)
	}
}

// WriteHTTP writes res to w. The body is omitted for HEAD requests.
func WriteHTTP(w http.ResponseWriter, r *http.Request, res result.Result) error {
	resp, err := ToResponse(res)
	if err != nil {
		return err
	}
	return WriteResponse(w, r, resp)
}

// WriteResponse writes a complete response to w.
func WriteResponse(w http.ResponseWriter, r *http.Request, resp *result.Response) error {
	h := w.Header()
	for k, v := range resp.Header {
		h[k] = append([]string(nil), v...)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if r != nil && r.Method == http.MethodHead {
		return nil
	}
	_, err := w.Write(resp.Body)
	return err
}
