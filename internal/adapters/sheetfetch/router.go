package sheetfetch

import (
	"context"
	"strings"

	"github.com/mikey/sheet-inbox/internal/core"
)

// Router sends http(s) sources to the HTTP fetcher and everything else to
// the file source
type Router struct {
	HTTP core.SheetSource
	File core.SheetSource
}

// NewRouter creates a new router
func NewRouter(httpSource, fileSource core.SheetSource) *Router {
	return &Router{HTTP: httpSource, File: fileSource}
}

// Fetch implements core.SheetSource
func (r *Router) Fetch(ctx context.Context, src core.Source) (*core.Snapshot, error) {
	if IsRemote(src.URL) {
		return r.HTTP.Fetch(ctx, src)
	}
	return r.File.Fetch(ctx, src)
}

// IsRemote reports whether location is an http or https URL
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
