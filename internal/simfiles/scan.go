package simfiles

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/logging"
	"github.com/simviewer/simviewer/internal/metrics"
	"github.com/simviewer/simviewer/pkg/models"
)

// Found is one sim-requests file reported by Walk.
type Found struct {
	FullPath     string
	RelativePath string // slash-separated, relative to the walked root
	Info         fs.FileInfo
}

// Walk calls fn for every sim-requests file below root in lexical order.
// Files that cannot be stat'ed and unreadable subdirectories are logged and
// skipped; only a failure to read root itself is returned.
func Walk(ctx context.Context, root string, logger *zap.Logger, fn func(Found)) error {
	// A trailing separator makes WalkDir descend into root when it is a
	// symlink to a directory.
	walkRoot := root
	if !strings.HasSuffix(walkRoot, string(filepath.Separator)) {
		walkRoot += string(filepath.Separator)
	}

	return filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}
			logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			metrics.RecordFileSkipped("unreadable")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !Match(d.Name()) {
			return nil
		}

		// Stat follows symlinks so linked files report the target's size.
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("error processing file", zap.String("path", path), zap.Error(err))
			metrics.RecordFileSkipped("stat")
			return nil
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			logger.Warn("error processing file", zap.String("path", path), zap.Error(err))
			metrics.RecordFileSkipped("relpath")
			return nil
		}

		fn(Found{
			FullPath:     filepath.Join(root, rel),
			RelativePath: filepath.ToSlash(rel),
			Info:         info,
		})
		return nil
	})
}

// Scanner collects sim-requests files under a root directory.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner creates a scanner. Scans log through the request logger in
// ctx when there is one, otherwise through logger.
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan recursively finds every sim-requests file under root and returns them
// sorted by display name. root must be an absolute directory path.
func (s *Scanner) Scan(ctx context.Context, root string) ([]*models.FileEntry, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, s.logger)
	logger.Debug("scanning directory",
		zap.String("root", root),
		zap.String("pattern", FilePrefix+"*"+FileSuffix))

	entries := make([]*models.FileEntry, 0)
	err := Walk(ctx, root, logger, func(f Found) {
		entry := NewEntry(f)
		logger.Debug("added file",
			zap.String("display_name", entry.DisplayName),
			zap.String("relative_path", entry.RelativePath))
		entries = append(entries, entry)
	})
	if err != nil {
		metrics.RecordScan(0, time.Since(start), false)
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	// Walk order is lexical, so ties keep a stable, repeatable order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DisplayName < entries[j].DisplayName
	})

	metrics.RecordScan(len(entries), time.Since(start), true)
	return entries, nil
}

// NewEntry builds the API representation of a found file.
func NewEntry(f Found) *models.FileEntry {
	info := Describe(f.RelativePath)
	return &models.FileEntry{
		FullPath:     f.FullPath,
		RelativePath: f.RelativePath,
		DisplayName:  info.DisplayName,
		RunID:        info.RunIDPtr(),
		Instance:     info.Instance,
		Size:         f.Info.Size(),
		Modified:     UnixSeconds(f.Info.ModTime()),
	}
}

// UnixSeconds converts t to fractional seconds since the epoch.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
