package staticpaths

import (
	"context"
	"errors"
	"testing"

	merrors "github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/router"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
	}{
		{"typed", []Path{{Params: map[string]any{"a": "1"}}}, 1},
		{"grouped", [][]Path{{{Params: map[string]any{"a": "1"}}}, {{Params: map[string]any{"a": "2"}}}}, 2},
		{"maps", []map[string]any{{"params": map[string]any{"a": "1"}}}, 1},
		{"nested any", []any{
			map[string]any{"params": map[string]any{"a": "1"}, "props": map[string]any{"x": 1}},
			[]any{
				map[string]any{"params": map[string]string{"a": "2"}},
				Path{Params: map[string]any{"a": "3"}},
			},
			&Path{Params: map[string]any{"a": "4"}},
		}, 4},
		{"empty", []any{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestNormalizeKeepsOrder(t *testing.T) {
	got, err := Normalize([]any{
		map[string]any{"params": map[string]any{"n": "1"}},
		[]any{map[string]any{"params": map[string]any{"n": "2"}}},
		map[string]any{"params": map[string]any{"n": "3"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range got {
		if want := string(rune('1' + i)); p.Params["n"] != want {
			t.Errorf("path %d = %v, want n=%s", i, p.Params, want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	tests := map[string]any{
		"nil":         nil,
		"string":      "nope",
		"single map":  map[string]any{"params": map[string]any{}},
		"single path": Path{},
		"item string": []any{"nope"},
		"params type": []any{map[string]any{"params": "slug=a"}},
		"props type":  []any{map[string]any{"params": map[string]any{}, "props": 3}},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(input)
			if !errors.Is(err, ErrInvalidShape) {
				t.Fatalf("error = %v, want ErrInvalidShape", err)
			}
			if merrors.CodeOf(err) != "M001" {
				t.Errorf("code = %q", merrors.CodeOf(err))
			}
		})
	}
}

func TestDataGenerator(t *testing.T) {
	route := router.MustCompile("/tags/[tag]", router.KindPage, "tags")
	gen := DataGenerator(func(ctx context.Context, opts Options) (any, error) {
		return []any{
			map[string]any{"params": map[string]any{"tag": "go"}, "props": map[string]any{"count": 3}},
			map[string]any{"params": map[string]any{"tag": "web"}},
		}, nil
	})

	res, err := NewResolver(quietCache(), false).Resolve(context.Background(), route, "/tags/go", gen)
	if err != nil {
		t.Fatal(err)
	}
	if res.Props["count"] != 3 {
		t.Errorf("props = %v", res.Props)
	}

	failing := DataGenerator(func(context.Context, Options) (any, error) {
		return "not a list", nil
	})
	_, err = NewResolver(quietCache(), false).Resolve(context.Background(), route, "/tags/go", failing)
	if !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error = %v", err)
	}
}
