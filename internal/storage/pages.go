package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PageArchive saves raw listing HTML as <dir>/<site>/<YYYY-MM-DD>/<id>.html.
type PageArchive struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewPageArchive creates an archive rooted at dir.
func NewPageArchive(dir string, logger *slog.Logger) *PageArchive {
	return &PageArchive{
		dir:    dir,
		now:    time.Now,
		logger: logger.With("component", "page_archive"),
	}
}

// Path returns where the page for site and id is stored on day.
func (a *PageArchive) Path(site, id string, day time.Time) string {
	return filepath.Join(a.dir, sanitize(site), day.Format("2006-01-02"), sanitize(id)+".html")
}

// Exists reports whether today's copy of the page is already saved.
func (a *PageArchive) Exists(site, id string) bool {
	_, err := os.Stat(a.Path(site, id, a.now()))
	return err == nil
}

// Save writes html for site and id under today's date and returns the path.
func (a *PageArchive) Save(site, id, html string) (string, error) {
	path := a.Path(site, id, a.now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create page dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write page: %w", err)
	}
	a.logger.Debug("page saved", "site", site, "id", id, "path", path)
	return path, nil
}

// sanitize makes s safe to use as a single path element.
func sanitize(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}
