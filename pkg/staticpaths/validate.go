package staticpaths

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/router"
)

var (
	// ErrInvalidParamType is wrapped when a param value is not a string,
	// number or nil.
	ErrInvalidParamType = errors.New("staticpaths: invalid param type")

	// ErrInvalidShape is wrapped when generator output is not a list of
	// paths.
	ErrInvalidShape = errors.New("staticpaths: invalid static paths shape")
)

// validate converts generator output into entries. Paths without params
// are skipped with a warning. A param of a disallowed type fails the whole
// route when strict, otherwise only that path is skipped.
func validate(component string, paths []Path, strict bool, logger *slog.Logger) ([]Entry, error) {
	entries := make([]Entry, 0, len(paths))

outer:
	for i, p := range paths {
		if p.Params == nil {
			logger.Warn("static path is missing params, skipping",
				"component", component, "index", i)
			continue
		}

		params := make(router.Params, len(p.Params))
		for name, raw := range p.Params {
			v, ok := paramString(raw)
			if !ok {
				if strict {
					return nil, merrors.New("M002").
						WithDetailf("%s: param %q has type %T", component, name, raw).
						Wrap(fmt.Errorf("%w: %T", ErrInvalidParamType, raw))
				}
				logger.Warn("static path param has invalid type, skipping",
					"component", component, "param", name, "type", fmt.Sprintf("%T", raw))
				continue outer
			}
			if raw == nil {
				continue
			}
			if v == "" {
				logger.Warn("static path param is an empty string; use nil for an absent optional param",
					"component", component, "param", name)
			}
			params[name] = v
		}

		entries = append(entries, Entry{Params: params, Props: p.Props})
	}
	return entries, nil
}

// paramString coerces an allowed param value to its stored string form.
func paramString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}
