package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loader 按文件扩展名选择解析方式，并按修改时间缓存解析结果
type Loader struct {
	path   string
	sheet  string
	loc    *time.Location
	logger *zap.Logger

	mu      sync.Mutex
	cached  *Schedule
	modTime time.Time
	size    int64
}

// NewLoader 创建 Loader
func NewLoader(path, sheet string, loc *time.Location, logger *zap.Logger) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{path: path, sheet: sheet, loc: loc, logger: logger}
}

// Path 课表文件路径
func (l *Loader) Path() string { return l.path }

// Load 读取课表；文件未变化时直接返回缓存
func (l *Loader) Load(ctx context.Context) (*Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("读取课表失败: %w", err)
	}
	if l.cached != nil && info.ModTime().Equal(l.modTime) && info.Size() == l.size {
		return l.cached, nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("读取课表失败: %w", err)
	}
	defer f.Close()

	var s *Schedule
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".xlsx", ".xlsm":
		s, err = LoadXLSX(f, l.sheet)
	case ".ics", ".ical":
		s, err = LoadICS(f, l.loc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	for _, sk := range s.Skipped {
		l.logger.Warn("课表行已忽略", zap.String("path", l.path), zap.Int("line", sk.Line), zap.String("reason", sk.Reason))
	}
	l.logger.Info("课表已加载",
		zap.String("path", l.path),
		zap.String("source", s.Source),
		zap.Int("entries", len(s.Entries)),
		zap.Int("skipped", len(s.Skipped)),
	)

	l.cached, l.modTime, l.size = s, info.ModTime(), info.Size()
	return s, nil
}
