package staticpaths

import (
	"errors"
	"strconv"

	"github.com/vango-dev/meridian/pkg/router"
)

// DefaultPageSize is used when PaginateOptions.PageSize is not positive.
const DefaultPageSize = 10

// ErrPaginateParam is returned when the route has no "page" param.
var ErrPaginateParam = errors.New("staticpaths: paginated route must declare a page param, e.g. [...page]")

// PaginateOptions configures Paginate.
type PaginateOptions struct {
	PageSize int
	// Params are added to every page's params.
	Params router.Params
	// Props are added to every page's props.
	Props Props
}

// PageURL links a page to its neighbours. Next and Prev are empty at the
// respective boundary.
type PageURL struct {
	Current string
	Next    string
	Prev    string
}

// Page is the "page" prop of a paginated path.
type Page[T any] struct {
	Data []T
	// Start is the index of the first item on this page.
	Start int
	// End is the index of the last item, -1 for an empty page.
	End         int
	Size        int
	Total       int
	CurrentPage int
	LastPage    int
	URL         PageURL
}

// Paginate splits data into pages of opts.PageSize and returns one path per
// page. Page 1 leaves the page param absent; later pages set it to the
// page number. Each path's props carry the page under "page". Empty data
// still yields a single, empty page.
func Paginate[T any](route *router.Route, data []T, opts PaginateOptions) ([]Path, error) {
	if route == nil || !route.HasParam("page") {
		return nil, ErrPaginateParam
	}
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(data)
	lastPage := max(1, (total+size-1)/size)
	paths := make([]Path, 0, lastPage)

	for n := 1; n <= lastPage; n++ {
		start := (n - 1) * size
		end := min(start+size, total)

		current, err := pageURL(route, opts.Params, n)
		if err != nil {
			return nil, err
		}
		var next, prev string
		if n < lastPage {
			if next, err = pageURL(route, opts.Params, n+1); err != nil {
				return nil, err
			}
		}
		if n > 1 {
			if prev, err = pageURL(route, opts.Params, n-1); err != nil {
				return nil, err
			}
		}

		params := make(map[string]any, len(opts.Params)+1)
		for k, v := range opts.Params {
			params[k] = v
		}
		if n > 1 {
			params["page"] = strconv.Itoa(n)
		}

		props := opts.Props.Clone()
		props["page"] = Page[T]{
			Data:        data[start:end:end],
			Start:       start,
			End:         end - 1,
			Size:        size,
			Total:       total,
			CurrentPage: n,
			LastPage:    lastPage,
			URL:         PageURL{Current: current, Next: next, Prev: prev},
		}

		paths = append(paths, Path{Params: params, Props: props})
	}
	return paths, nil
}

func pageURL(route *router.Route, base router.Params, n int) (string, error) {
	params := base.Clone()
	if n > 1 {
		params["page"] = strconv.Itoa(n)
	} else {
		delete(params, "page")
	}
	return route.Generate(params)
}
