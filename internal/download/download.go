// Package download persists a batch of selected images into a folder.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/galleryexplorer/internal/fetch"
	"codeberg.org/snonux/galleryexplorer/internal/logging"
)

// maxNameAttempts bounds the timestamp bumps used to find a free filename
const maxNameAttempts = 1000

// Job is one download batch. URLs are processed in order.
type Job struct {
	ID     string
	URLs   []string
	Folder string
	Prefix string
}

// NewJob creates a job with a fresh batch id
func NewJob(urls []string, folder, prefix string) Job {
	return Job{ID: uuid.NewString(), URLs: urls, Folder: folder, Prefix: prefix}
}

// ProgressFunc is called after every item with a 1-based position
type ProgressFunc func(current, total int)

// Event is emitted on the channel returned by Start. The last event has
// Done set and carries the success count.
type Event struct {
	Current int
	Total   int
	Done    bool
	Success int
}

// Manager downloads batches sequentially
type Manager struct {
	fetcher *fetch.Fetcher
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithFetcher replaces the default download fetcher
func WithFetcher(f *fetch.Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithClock replaces time.Now for filename timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a download manager
func NewManager(log logrus.FieldLogger, opts ...Option) *Manager {
	m := &Manager{
		fetcher: fetch.NewDownloadFetcher(),
		log:     logging.OrDiscard(log),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run downloads every URL of the job and returns how many were written.
// A failing item is logged and skipped; progress is still reported for it.
func (m *Manager) Run(ctx context.Context, job Job, progress ProgressFunc) int {
	total := len(job.URLs)
	log := m.log.WithFields(logrus.Fields{"batch": job.ID, "folder": job.Folder})

	if err := os.MkdirAll(job.Folder, 0755); err != nil {
		log.WithError(err).Error("Cannot create download folder")
		for i := range job.URLs {
			report(progress, i+1, total)
		}
		return 0
	}

	success := 0
	for i, u := range job.URLs {
		path, err := m.downloadOne(ctx, job, i, u)
		if err != nil {
			log.WithFields(logrus.Fields{"index": i, "url": u}).WithError(err).Warn("Download failed")
		} else {
			log.WithField("file", filepath.Base(path)).Debug("Downloaded")
			success++
		}
		report(progress, i+1, total)
	}

	log.WithFields(logrus.Fields{"requested": total, "succeeded": success}).Info("Download batch finished")
	return success
}

// Start runs the job in the background. The returned channel receives one
// progress event per item, then a final Done event, and is then closed.
func (m *Manager) Start(ctx context.Context, job Job) <-chan Event {
	events := make(chan Event, len(job.URLs)+1)
	go func() {
		defer close(events)
		n := m.Run(ctx, job, func(current, total int) {
			events <- Event{Current: current, Total: total}
		})
		events <- Event{Current: len(job.URLs), Total: len(job.URLs), Done: true, Success: n}
	}()
	return events
}

func report(progress ProgressFunc, current, total int) {
	if progress != nil {
		progress(current, total)
	}
}

func (m *Manager) downloadOne(ctx context.Context, job Job, index int, url string) (string, error) {
	resp, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	ext := ExtensionFor(resp.ContentType)
	ts := m.now().Unix()

	// The name keeps its {prefix}_{timestamp}_{index} shape; on a clash the
	// timestamp moves forward until a free name is found.
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		path := filepath.Join(job.Folder, Filename(job.Prefix, ts+int64(attempt), index, ext))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write(resp.Body); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("close %s: %w", path, err)
		}
		return path, nil
	}

	return "", fmt.Errorf("no free filename for %s after %d attempts", job.Prefix, maxNameAttempts)
}

// ExtensionFor maps a Content-Type header to a file extension
func ExtensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "gif"):
		return "gif"
	case strings.Contains(ct, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}

// Filename builds {prefix}_{timestamp}_{index}.{ext}
func Filename(prefix string, unix int64, index int, ext string) string {
	return fmt.Sprintf("%s_%d_%d.%s", prefix, unix, index, ext)
}
