package sheetfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/adapters/cache"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/logging"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// Options tunes the HTTP fetcher
type Options struct {
	Timeout         time.Duration
	MaxBodyBytes    int64
	CacheBuster     bool
	FallbackToCache bool
	UserAgent       string
}

// HTTPFetcher downloads published CSV exports, honoring ETag and
// Last-Modified, and falls back to the last good body when the network or the
// server fails
type HTTPFetcher struct {
	client *http.Client
	cache  core.SnapshotCache
	text   *utils.TextProcessor
	logger *zap.Logger
	opts   Options
	now    func() time.Time
}

// NewHTTPFetcher creates a new fetcher. snapshots may be nil.
func NewHTTPFetcher(snapshots core.SnapshotCache, text *utils.TextProcessor, logger *zap.Logger, opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		cache:  snapshots,
		text:   text,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Fetch fetches a single source
func (f *HTTPFetcher) Fetch(ctx context.Context, src core.Source) (*core.Snapshot, error) {
	if src.URL == "" {
		return nil, &FetchError{SourceID: src.ID, Err: errors.New("source URL is empty")}
	}

	cached := f.cached(ctx, src)

	target, err := f.requestURL(src.URL)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Err: err}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	if cached != nil {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	logger := f.logger.With(zap.String("source", src.ID), logging.URL("url", src.URL))
	logger.Debug("Sheet fetch start")

	resp, err := f.client.Do(req)
	if err != nil {
		return f.fallback(logger, cached, &FetchError{SourceID: src.ID, Err: err})
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := f.readBody(resp.Body)
		if err != nil {
			return f.fallback(logger, cached, &FetchError{SourceID: src.ID, Status: resp.StatusCode, Err: err})
		}

		snap := &core.Snapshot{
			SourceID:     src.ID,
			SourceURL:    src.URL,
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			FetchedAt:    f.now(),
		}
		if f.cache != nil {
			if err := f.cache.Set(ctx, snap); err != nil {
				// the fresh body is still good
				logger.Warn("Failed to store snapshot", zap.Error(err))
			}
		}

		logger.Debug("Sheet fetch success", zap.Int("bytes", len(body)))
		return snap, nil

	case http.StatusNotModified:
		if cached == nil {
			return nil, &FetchError{SourceID: src.ID, Status: resp.StatusCode, Err: ErrNotModifiedWithoutCache}
		}
		logger.Debug("Sheet not modified, using cache")
		return cached, nil

	default:
		return f.fallback(logger, cached, &FetchError{SourceID: src.ID, Status: resp.StatusCode, Err: errors.New(resp.Status)})
	}
}

func (f *HTTPFetcher) cached(ctx context.Context, src core.Source) *core.Snapshot {
	if f.cache == nil {
		return nil
	}
	snap, err := f.cache.Get(ctx, src.URL)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrExpired) {
			f.logger.Warn("Failed to read snapshot cache", zap.String("source", src.ID), zap.Error(err))
		}
		return nil
	}
	snap.FromCache = true
	return snap
}

func (f *HTTPFetcher) fallback(logger *zap.Logger, cached *core.Snapshot, err *FetchError) (*core.Snapshot, error) {
	if f.opts.FallbackToCache && cached != nil && len(cached.Body) > 0 {
		logger.Warn("Sheet fetch failed, using cached body", zap.Error(err), zap.Int("status", err.Status))
		return cached, nil
	}
	return nil, err
}

// requestURL appends the cache-busting t=<unix ms> parameter
func (f *HTTPFetcher) requestURL(raw string) (string, error) {
	if !f.opts.CacheBuster {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid source URL: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(f.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f *HTTPFetcher) readBody(r io.Reader) ([]byte, error) {
	if f.opts.MaxBodyBytes > 0 {
		r = io.LimitReader(r, f.opts.MaxBodyBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if f.opts.MaxBodyBytes > 0 && int64(len(body)) > f.opts.MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return []byte(f.text.SanitizeUTF8(string(body))), nil
}
