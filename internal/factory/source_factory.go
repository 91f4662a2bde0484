package factory

import (
	"github.com/mikey/sheet-inbox/internal/adapters/sheetfetch"
	"github.com/mikey/sheet-inbox/internal/config"
	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
	"go.uber.org/zap"
)

// SourceFactory creates the spreadsheet source
type SourceFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *SourceFactory {
	return &SourceFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateSheetSource creates a source that reads URLs over HTTP and paths from
// disk. snapshots may be nil.
func (f *SourceFactory) CreateSheetSource(snapshots core.SnapshotCache) (core.SheetSource, error) {
	sheetCfg, err := f.cfg.GetSheet()
	if err != nil {
		return nil, err
	}

	fetcher := sheetfetch.NewHTTPFetcher(snapshots, f.textProcessor, f.logger, sheetfetch.Options{
		Timeout:         sheetCfg.Timeout,
		MaxBodyBytes:    sheetCfg.MaxBodyBytes,
		CacheBuster:     sheetCfg.CacheBuster,
		FallbackToCache: sheetCfg.FallbackToCache,
		UserAgent:       sheetCfg.UserAgent,
	})
	files := sheetfetch.NewFileSource(f.textProcessor, f.logger, sheetCfg.MaxBodyBytes)

	return sheetfetch.NewRouter(fetcher, files), nil
}
