package sheetfetch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/utils"
)

// FileSource reads a CSV export from local disk. Paths may carry a file://
// prefix.
type FileSource struct {
	text         *utils.TextProcessor
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewFileSource creates a new file source
func NewFileSource(text *utils.TextProcessor, logger *zap.Logger, maxBodyBytes int64) *FileSource {
	return &FileSource{
		text:         text,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Fetch reads the file named by src.URL
func (s *FileSource) Fetch(ctx context.Context, src core.Source) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{SourceID: src.ID, Err: err}
	}

	path := strings.TrimPrefix(src.URL, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Err: fmt.Errorf("failed to stat file: %w", err)}
	}
	if s.maxBodyBytes > 0 && info.Size() > s.maxBodyBytes {
		return nil, &FetchError{SourceID: src.ID, Err: ErrBodyTooLarge}
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	s.logger.Debug("Read sheet file", zap.String("source", src.ID), zap.String("path", path), zap.Int("bytes", len(body)))

	return &core.Snapshot{
		SourceID:     src.ID,
		SourceURL:    src.URL,
		Body:         []byte(s.text.SanitizeUTF8(string(body))),
		LastModified: info.ModTime().UTC().Format(time.RFC1123),
		FetchedAt:    time.Now(),
	}, nil
}
