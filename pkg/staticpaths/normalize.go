package staticpaths

import (
	"context"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/router"
)

// Normalize converts loosely typed generator output into paths. It accepts
// []Path, [][]Path and []any, where []any items may be Path, *Path,
// map[string]any objects with "params" and "props" fields, or nested
// lists of any of these. Nested lists are flattened in order.
//
// Anything else fails with a coded error wrapping ErrInvalidShape.
func Normalize(v any) ([]Path, error) {
	var out []Path
	if err := flatten(v, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// DataGenerator adapts a generator returning untyped data.
func DataGenerator(fn func(ctx context.Context, opts Options) (any, error)) Generator {
	return func(ctx context.Context, opts Options) ([]Path, error) {
		v, err := fn(ctx, opts)
		if err != nil {
			return nil, err
		}
		return Normalize(v)
	}
}

func flatten(v any, out *[]Path, top bool) error {
	switch x := v.(type) {
	case []Path:
		*out = append(*out, x...)
	case [][]Path:
		for _, group := range x {
			*out = append(*out, group...)
		}
	case []map[string]any:
		for _, m := range x {
			p, err := pathFromMap(m)
			if err != nil {
				return err
			}
			*out = append(*out, p)
		}
	case []any:
		for _, item := range x {
			if err := flatten(item, out, false); err != nil {
				return err
			}
		}
	case Path:
		if top {
			return shapeError("expected a list of paths, got a single path")
		}
		*out = append(*out, x)
	case *Path:
		if top || x == nil {
			return shapeError("expected a list of paths, got %T", v)
		}
		*out = append(*out, *x)
	case map[string]any:
		if top {
			return shapeError("expected a list of paths, got an object")
		}
		p, err := pathFromMap(x)
		if err != nil {
			return err
		}
		*out = append(*out, p)
	default:
		return shapeError("unexpected %T", v)
	}
	return nil
}

func pathFromMap(m map[string]any) (Path, error) {
	var p Path

	switch params := m["params"].(type) {
	case nil:
		// validation reports the missing field
	case map[string]any:
		p.Params = params
	case map[string]string:
		p.Params = stringMap(params)
	case router.Params:
		p.Params = stringMap(params)
	default:
		return Path{}, shapeError("params must be an object, got %T", params)
	}

	switch props := m["props"].(type) {
	case nil:
	case map[string]any:
		p.Props = props
	case Props:
		p.Props = props
	default:
		return Path{}, shapeError("props must be an object, got %T", props)
	}
	return p, nil
}

func stringMap[M ~map[string]string](m M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func shapeError(format string, args ...any) error {
	return merrors.New("M001").
		WithDetailf(format, args...).
		Wrap(ErrInvalidShape)
}
