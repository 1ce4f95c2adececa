package gui

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/galleryexplorer/internal"
	"codeberg.org/snonux/galleryexplorer/internal/download"
	"codeberg.org/snonux/galleryexplorer/internal/fetch"
	"codeberg.org/snonux/galleryexplorer/internal/history"
	"codeberg.org/snonux/galleryexplorer/internal/logging"
	"codeberg.org/snonux/galleryexplorer/internal/search"
	"codeberg.org/snonux/galleryexplorer/internal/session"
)

// Recorder appends searches and downloads to the history
type Recorder interface {
	RecordSearch(ctx context.Context, q search.Query, results int, searchErr error) (string, error)
	RecordDownload(ctx context.Context, rec history.DownloadRecord) (string, error)
}

// Config holds GUI application configuration
type Config struct {
	OutputDir         string
	Query             search.Query
	SlideshowInterval time.Duration
}

// Application represents the main GUI application. Every field below the
// Fyne components is owned by the UI goroutine; background work hands its
// results back through fyne.Do.
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// Search tab
	queryEntry      *widget.Entry
	engineSelect    *widget.Select
	sizeSelect      *widget.Select
	colorSelect     *widget.Select
	safeCheck       *widget.Check
	searchButton    *ttwidget.Button
	clearButton     *ttwidget.Button
	selectAllButton *ttwidget.Button
	downloadButton  *ttwidget.Button
	selectionLabel  *widget.Label
	resultsGrid     *fyne.Container
	progressBar     *widget.ProgressBar
	cards           []*ResultCard

	// Gallery tab
	galleryGrid   *fyne.Container
	galleryLabel  *widget.Label
	slideshow     *slideshowWindow
	slideshowBtn  *ttwidget.Button
	clearGalleryB *ttwidget.Button

	statusLabel *widget.Label
	logViewer   *LogViewer
	statusSeq   int

	// State
	session     session.Session
	loader      *fetch.ThumbnailLoader
	thumbnails  *fetch.Batch
	searching   bool
	downloading bool

	// Collaborators
	config   *Config
	orch     *search.Orchestrator
	manager  *download.Manager
	recorder Recorder
	log      logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	// do runs fn on the UI goroutine
	do func(fn func())
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	// Use XDG Base Directory specification for state data
	outputDir := filepath.Join(homeDir, ".local", "state", "galleryexplorer", "gallery")

	return &Config{
		OutputDir:         outputDir,
		SlideshowInterval: 2 * time.Second,
	}
}

// New creates a new GUI application. recorder may be nil. When logger is
// a *logrus.Logger its output is mirrored into the log tab.
func New(config *Config, orch *search.Orchestrator, manager *download.Manager, recorder Recorder, logger logrus.FieldLogger) *Application {
	return newApplication(app.NewWithID("org.codeberg.snonux.galleryexplorer"), config, orch, manager, recorder, logger)
}

func newApplication(fyneApp fyne.App, config *Config, orch *search.Orchestrator, manager *download.Manager, recorder Recorder, logger logrus.FieldLogger) *Application {
	if config == nil {
		config = DefaultConfig()
	} else {
		// Fill in missing fields with defaults
		defaults := DefaultConfig()
		if config.OutputDir == "" {
			config.OutputDir = defaults.OutputDir
		}
		if config.SlideshowInterval <= 0 {
			config.SlideshowInterval = defaults.SlideshowInterval
		}
	}

	// Ensure output directory exists
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		logging.OrDiscard(logger).WithError(err).Warn("Cannot create gallery folder")
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Application{
		app:      fyneApp,
		config:   config,
		orch:     orch,
		manager:  manager,
		recorder: recorder,
		log:      logging.OrDiscard(logger),
		ctx:      ctx,
		cancel:   cancel,
		do:       fyne.Do,
		session:  session.New(config.Query, nil),
	}
	a.loader = fetch.NewThumbnailLoader(nil, a.log)

	a.setupUI()

	if l, ok := logger.(*logrus.Logger); ok {
		logging.AttachSink(l, a.logViewer)
	}

	a.reloadGallery()
	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("GalleryExplorer v%s", internal.Version))
	a.window.SetIcon(theme.FileImageIcon())
	a.window.Resize(fyne.NewSize(1000, 760))

	a.statusLabel = widget.NewLabel("Ready")
	a.logViewer = NewLogViewer()

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Search", theme.SearchIcon(), a.buildSearchTab()),
		container.NewTabItemWithIcon("Gallery", theme.FolderIcon(), a.buildGalleryTab()),
		container.NewTabItemWithIcon("Log", theme.ListIcon(), a.logViewer),
	)
	tabs.OnSelected = func(item *container.TabItem) {
		if item.Text == "Gallery" {
			a.reloadGallery()
		}
	}

	content := container.NewBorder(
		nil,
		container.NewVBox(widget.NewSeparator(), a.statusLabel),
		nil, nil,
		tabs,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))
	a.setupTooltips()

	a.window.SetOnClosed(func() {
		if a.slideshow != nil {
			a.slideshow.stop()
		}
		if a.thumbnails != nil {
			a.thumbnails.Stop(500 * time.Millisecond)
		}
		a.cancel()
	})
}

func (a *Application) setupTooltips() {
	a.searchButton.SetToolTip("Search (Enter)")
	a.clearButton.SetToolTip("Clear search")
	a.selectAllButton.SetToolTip("Select / deselect all")
	a.downloadButton.SetToolTip("Download selected images")
	a.slideshowBtn.SetToolTip("Start slideshow")
	a.clearGalleryB.SetToolTip("Delete all gallery images")
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// openFolder opens the gallery folder in the desktop file manager
func (a *Application) openFolder() {
	if err := os.MkdirAll(a.config.OutputDir, 0755); err != nil {
		a.setStatus(StatusError, fmt.Sprintf("Cannot create folder: %v", err))
		return
	}
	u, err := url.Parse(storage.NewFileURI(a.config.OutputDir).String())
	if err != nil {
		a.setStatus(StatusError, fmt.Sprintf("Cannot open folder: %v", err))
		return
	}
	if err := a.app.OpenURL(u); err != nil {
		a.setStatus(StatusError, fmt.Sprintf("Cannot open folder: %v", err))
	}
}
