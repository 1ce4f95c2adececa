package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/galleryexplorer/internal/logging"
	"codeberg.org/snonux/galleryexplorer/internal/session"
)

// Thumbnail is the completion of one preview fetch. Exactly one of Data
// and Err is set. Index and URL are captured when the task is created.
type Thumbnail struct {
	Index int
	URL   string
	Data  []byte
	Err   error
}

// Failed reports whether the fetch failed
func (t Thumbnail) Failed() bool {
	return t.Err != nil
}

// ThumbnailLoader starts one fetch task per result card
type ThumbnailLoader struct {
	fetcher *Fetcher
	log     logrus.FieldLogger
}

// NewThumbnailLoader creates a loader. A nil fetcher uses the preview
// defaults.
func NewThumbnailLoader(fetcher *Fetcher, log logrus.FieldLogger) *ThumbnailLoader {
	if fetcher == nil {
		fetcher = NewThumbnailFetcher()
	}
	return &ThumbnailLoader{fetcher: fetcher, log: logging.OrDiscard(log)}
}

// Batch is the set of preview fetches belonging to one search
type Batch struct {
	cancel      context.CancelFunc
	completions chan Thumbnail
	done        chan struct{}
	stopOnce    sync.Once
}

// Start launches the fetches in result order. Completions arrive in any
// order on Batch.Completions, which is closed once every task finished.
func (l *ThumbnailLoader) Start(ctx context.Context, results []session.ImageResult) *Batch {
	ctx, cancel := context.WithCancel(ctx)
	b := &Batch{
		cancel:      cancel,
		completions: make(chan Thumbnail, len(results)),
		done:        make(chan struct{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range results {
		g.Go(func() error {
			b.completions <- l.load(gctx, r)
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		cancel()
		close(b.completions)
		close(b.done)
	}()

	return b
}

func (l *ThumbnailLoader) load(ctx context.Context, r session.ImageResult) Thumbnail {
	resp, err := l.fetcher.Fetch(ctx, r.URL)
	if err != nil {
		entry := l.log.WithFields(logrus.Fields{"index": r.Index, "url": r.URL}).WithError(err)
		if ctx.Err() != nil {
			// abandoned with its batch
			entry.Debug("Thumbnail cancelled")
		} else {
			entry.Warn("Thumbnail failed")
		}
		return Thumbnail{Index: r.Index, URL: r.URL, Err: err}
	}
	return Thumbnail{Index: r.Index, URL: r.URL, Data: resp.Body}
}

// Completions delivers one Thumbnail per started task
func (b *Batch) Completions() <-chan Thumbnail {
	return b.completions
}

// Done is closed when every task has finished
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Stop cancels the outstanding fetches and waits up to grace for them to
// wind down. It reports whether all tasks finished in time.
func (b *Batch) Stop(grace time.Duration) bool {
	b.stopOnce.Do(b.cancel)

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-b.done:
		return true
	case <-timer.C:
		return false
	}
}
