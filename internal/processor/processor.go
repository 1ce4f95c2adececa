package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/galleryexplorer/internal"
	"codeberg.org/snonux/galleryexplorer/internal/archive"
	"codeberg.org/snonux/galleryexplorer/internal/batch"
	"codeberg.org/snonux/galleryexplorer/internal/cli"
	"codeberg.org/snonux/galleryexplorer/internal/download"
	"codeberg.org/snonux/galleryexplorer/internal/gallery"
	"codeberg.org/snonux/galleryexplorer/internal/gui"
	"codeberg.org/snonux/galleryexplorer/internal/history"
	"codeberg.org/snonux/galleryexplorer/internal/logging"
	"codeberg.org/snonux/galleryexplorer/internal/search"
)

// Processor implements the application modes on top of the core packages
type Processor struct {
	cfg     cli.Config
	logger  *logrus.Logger
	orch    *search.Orchestrator
	manager *download.Manager
	store   *history.Store

	out io.Writer
	in  io.Reader
	now func() time.Time
}

// Option configures a Processor
type Option func(*Processor)

// WithOutput redirects user-facing output
func WithOutput(w io.Writer) Option {
	return func(p *Processor) { p.out = w }
}

// WithInput replaces stdin for confirmation prompts
func WithInput(r io.Reader) Option {
	return func(p *Processor) { p.in = r }
}

// WithOrchestrator replaces the default search orchestrator
func WithOrchestrator(o *search.Orchestrator) Option {
	return func(p *Processor) { p.orch = o }
}

// WithManager replaces the default download manager
func WithManager(m *download.Manager) Option {
	return func(p *Processor) { p.manager = m }
}

// WithLogger replaces the stderr logger
func WithLogger(l *logrus.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor creates a processor for cfg. The history database is
// opened only when history is enabled.
func NewProcessor(cfg cli.Config, opts ...Option) (*Processor, error) {
	p := &Processor{
		cfg: cfg,
		out: os.Stdout,
		in:  os.Stdin,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logging.New(cfg.LogLevel, os.Stderr)
	}
	if p.orch == nil {
		p.orch = search.NewOrchestrator(search.NewClient(p.logger), p.logger)
	}
	if p.manager == nil {
		p.manager = download.NewManager(p.logger)
	}

	if cfg.HistoryEnabled {
		path := cfg.HistoryPath
		if path == "" {
			var err error
			if path, err = history.DefaultPath(); err != nil {
				return nil, err
			}
		}
		store, err := history.Open(path)
		if err != nil {
			// History is an audit trail; the application works without it
			p.logger.WithError(err).Warn("History disabled")
		} else {
			p.store = store
		}
	}

	return p, nil
}

// Close releases the history database
func (p *Processor) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

func (p *Processor) query(text string) search.Query {
	q := p.cfg.Query
	q.Text = text
	return q
}

// runSearch performs a search and appends it to the history
func (p *Processor) runSearch(ctx context.Context, q search.Query) ([]string, error) {
	urls, err := p.orch.Search(ctx, q)
	if p.store != nil {
		if _, herr := p.store.RecordSearch(ctx, q, len(urls), err); herr != nil {
			p.logger.WithError(herr).Warn("Failed to record search")
		}
	}
	return urls, err
}

// Search prints the image URLs found for text
func (p *Processor) Search(ctx context.Context, text string) error {
	q := p.query(text)
	urls, err := p.runSearch(ctx, q)
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		fmt.Fprintf(p.out, "No images found for %q on %s\n", q.Text, q.Engine)
		return nil
	}
	for i, u := range urls {
		fmt.Fprintf(p.out, "%2d  %s\n", i, u)
	}
	fmt.Fprintf(p.out, "\n%d images found on %s\n", len(urls), q.Engine)
	return nil
}

// Download searches text and downloads the picked results, or the first
// limit results, or all of them
func (p *Processor) Download(ctx context.Context, text string, pick []int, limit int) error {
	q := p.query(text)
	urls, err := p.runSearch(ctx, q)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintf(p.out, "No images found for %q on %s\n", q.Text, q.Engine)
		return nil
	}

	selected, err := selectURLs(urls, pick, limit)
	if err != nil {
		return err
	}

	n := p.download(ctx, q.Text, selected)
	fmt.Fprintf(p.out, "Downloaded %d of %d images to %s\n", n, len(selected), p.cfg.OutputDir)
	return nil
}

func selectURLs(urls []string, pick []int, limit int) ([]string, error) {
	if len(pick) > 0 {
		indices, err := cli.ParsePick(pick, len(urls))
		if err != nil {
			return nil, err
		}
		selected := make([]string, len(indices))
		for i, idx := range indices {
			selected[i] = urls[idx]
		}
		return selected, nil
	}
	if limit > 0 && limit < len(urls) {
		return urls[:limit], nil
	}
	return urls, nil
}

// download runs one batch with a progress line and records it
func (p *Processor) download(ctx context.Context, text string, urls []string) int {
	job := download.NewJob(urls, p.cfg.OutputDir, internal.FilenamePrefix(text))

	n := p.manager.Run(ctx, job, func(current, total int) {
		fmt.Fprintf(p.out, "\rDownloading %d/%d", current, total)
		if current == total {
			fmt.Fprintln(p.out)
		}
	})

	if p.store != nil {
		rec := history.DownloadRecord{
			ID:        job.ID,
			Prefix:    job.Prefix,
			Folder:    job.Folder,
			Requested: len(urls),
			Succeeded: n,
		}
		if _, err := p.store.RecordDownload(ctx, rec); err != nil {
			p.logger.WithError(err).Warn("Failed to record download")
		}
	}
	return n
}

// Batch searches and downloads every query of a batch file. A failing
// query is reported and the batch continues.
func (p *Processor) Batch(ctx context.Context, file string) error {
	entries, err := batch.ReadBatchFile(file)
	if err != nil {
		return err
	}

	processed, failed, downloaded := 0, 0, 0
	for i, entry := range entries {
		q := p.query(entry.Text)
		q.Engine = entry.EngineOr(p.cfg.Query.Engine)

		fmt.Fprintf(p.out, "\nProcessing %d/%d: %s (%s)\n", i+1, len(entries), q.Text, q.Engine)

		urls, err := p.runSearch(ctx, q)
		if err != nil {
			fmt.Fprintf(p.out, "  Error: %v\n", err)
			failed++
			continue
		}
		if len(urls) == 0 {
			fmt.Fprintf(p.out, "  No images found\n")
			processed++
			continue
		}

		n := p.download(ctx, q.Text, urls)
		fmt.Fprintf(p.out, "  Downloaded %d of %d images\n", n, len(urls))
		downloaded += n
		processed++
	}

	fmt.Fprintf(p.out, "\n=== Batch Summary ===\n")
	fmt.Fprintf(p.out, "Total queries: %d\n", len(entries))
	fmt.Fprintf(p.out, "Processed: %d\n", processed)
	if failed > 0 {
		fmt.Fprintf(p.out, "Failed: %d\n", failed)
	}
	fmt.Fprintf(p.out, "Images downloaded: %d\n", downloaded)
	fmt.Fprintf(p.out, "Gallery: %s\n", p.cfg.OutputDir)
	return nil
}

// GalleryList prints the gallery files with their sizes
func (p *Processor) GalleryList() error {
	files, err := gallery.Files(p.cfg.OutputDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(p.out, "%10s  %s\n", gallery.FormatSize(f.Size), f.Name)
	}
	fmt.Fprintf(p.out, "%d images in %s\n", len(files), p.cfg.OutputDir)
	return nil
}

// GalleryClear deletes the gallery images. Without confirmed the user is
// asked first.
func (p *Processor) GalleryClear(confirmed bool) error {
	names, err := gallery.List(p.cfg.OutputDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(p.out, "Gallery is empty")
		return nil
	}

	if !confirmed {
		fmt.Fprintf(p.out, "Delete %d images from %s? This cannot be undone. [y/N] ", len(names), p.cfg.OutputDir)
		answer, _ := bufio.NewReader(p.in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(p.out, "Aborted")
			return nil
		}
	}

	n, err := gallery.Clear(p.cfg.OutputDir)
	var fsErr *gallery.FilesystemError
	if errors.As(err, &fsErr) {
		fmt.Fprintf(p.out, "Removed %d images before failing\n", fsErr.Removed)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Removed %d images\n", n)
	return nil
}

// History prints the most recent searches and downloads
func (p *Processor) History(ctx context.Context, limit int) error {
	if p.store == nil {
		return errors.New("history is disabled")
	}

	searches, err := p.store.RecentSearches(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, "Searches:")
	for _, s := range searches {
		result := fmt.Sprintf("%d results", s.Results)
		if s.Error != "" {
			result = "error: " + s.Error
		}
		fmt.Fprintf(p.out, "  %s  %-10s  %-30q  %s\n",
			s.At.Format(time.DateTime), s.Query.Engine, s.Query.Text, result)
	}

	downloads, err := p.store.RecentDownloads(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, "Downloads:")
	for _, d := range downloads {
		fmt.Fprintf(p.out, "  %s  %-30s  %d/%d  %s\n",
			d.At.Format(time.DateTime), d.Prefix, d.Succeeded, d.Requested, d.Folder)
	}
	return nil
}

// Archive moves the gallery folder into the archive
func (p *Processor) Archive() error {
	path, err := archive.ArchiveGallery(p.cfg.OutputDir, p.now())
	if err != nil {
		return fmt.Errorf("failed to archive gallery: %w", err)
	}
	fmt.Fprintf(p.out, "Gallery archived to: %s\n", path)
	return nil
}

// GUI runs the interactive application until its window is closed
func (p *Processor) GUI() error {
	var recorder gui.Recorder
	if p.store != nil {
		recorder = p.store
	}

	app := gui.New(&gui.Config{
		OutputDir:         p.cfg.OutputDir,
		Query:             p.cfg.Query,
		SlideshowInterval: p.cfg.SlideshowInterval,
	}, p.orch, p.manager, recorder, p.logger)
	app.Run()
	return nil
}
