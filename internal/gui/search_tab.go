package gui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/galleryexplorer/internal"
	"codeberg.org/snonux/galleryexplorer/internal/download"
	"codeberg.org/snonux/galleryexplorer/internal/fetch"
	"codeberg.org/snonux/galleryexplorer/internal/history"
	"codeberg.org/snonux/galleryexplorer/internal/search"
	"codeberg.org/snonux/galleryexplorer/internal/session"
)

// thumbnailGrace is how long a new search waits for the previous
// thumbnail fetches to wind down
const thumbnailGrace = 500 * time.Millisecond

var (
	sizeOptions  = []string{"any", "large", "medium", "small"}
	colorOptions = []string{"any", "grayscale", "transparent", "red", "blue", "green"}
)

func engineOptions() []string {
	names := make([]string, len(search.Engines))
	for i, e := range search.Engines {
		names[i] = e.String()
	}
	return names
}

func (a *Application) buildSearchTab() fyne.CanvasObject {
	a.queryEntry = widget.NewEntry()
	a.queryEntry.SetPlaceHolder("Search images...")
	a.queryEntry.OnSubmitted = func(string) {
		a.onSearch()
		a.window.Canvas().Unfocus()
	}

	q := a.config.Query
	a.engineSelect = widget.NewSelect(engineOptions(), nil)
	a.engineSelect.SetSelected(q.Engine.String())
	a.sizeSelect = widget.NewSelect(sizeOptions, nil)
	a.sizeSelect.SetSelected(q.Filters.Size.String())
	a.colorSelect = widget.NewSelect(colorOptions, nil)
	a.colorSelect.SetSelected(q.Filters.Color.String())
	a.safeCheck = widget.NewCheck("Safe search", nil)
	a.safeCheck.SetChecked(q.Filters.SafeSearch)

	a.searchButton = ttwidget.NewButtonWithIcon("", theme.SearchIcon(), a.onSearch)
	a.searchButton.Importance = widget.HighImportance
	a.clearButton = ttwidget.NewButtonWithIcon("", theme.ContentClearIcon(), a.onClearSearch)

	a.selectAllButton = ttwidget.NewButtonWithIcon("Select all", theme.CheckButtonCheckedIcon(), a.onToggleAll)
	a.downloadButton = ttwidget.NewButtonWithIcon("Download", theme.DownloadIcon(), a.onDownload)
	a.selectionLabel = widget.NewLabel("")
	a.progressBar = widget.NewProgressBar()
	a.progressBar.Hide()

	a.resultsGrid = container.New(layout.NewGridLayoutWithColumns(session.GridColumns))

	inputRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(a.searchButton, a.clearButton),
		a.queryEntry,
	)
	filterRow := container.NewHBox(
		widget.NewLabel("Engine:"), a.engineSelect,
		widget.NewLabel("Size:"), a.sizeSelect,
		widget.NewLabel("Color:"), a.colorSelect,
		a.safeCheck,
	)
	actionRow := container.NewBorder(nil, nil,
		container.NewHBox(a.selectAllButton, a.selectionLabel),
		a.downloadButton,
		a.progressBar,
	)

	a.refreshSelection()

	return container.NewBorder(
		container.NewVBox(inputRow, filterRow, widget.NewSeparator()),
		container.NewVBox(widget.NewSeparator(), actionRow),
		nil, nil,
		container.NewVScroll(a.resultsGrid),
	)
}

// currentQuery reads the search form
func (a *Application) currentQuery() search.Query {
	engine, _ := search.ParseEngine(a.engineSelect.Selected)
	return search.Query{
		Text:   strings.TrimSpace(a.queryEntry.Text),
		Engine: engine,
		Filters: search.Filters{
			Size:       search.ParseSize(a.sizeSelect.Selected),
			Color:      search.ParseColor(a.colorSelect.Selected),
			SafeSearch: a.safeCheck.Checked,
		},
	}
}

// onSearch dispatches a background search. Only one may be outstanding.
func (a *Application) onSearch() {
	q := a.currentQuery()
	if q.Text == "" {
		a.setStatus(StatusWarning, "Enter a search term")
		return
	}

	outcomes, err := a.orch.Dispatch(a.ctx, q)
	if errors.Is(err, search.ErrSearchInProgress) {
		a.setStatus(StatusWarning, "A search is already running")
		return
	}
	if err != nil {
		a.setStatus(StatusError, err.Error())
		return
	}

	a.searching = true
	a.searchButton.Disable()
	a.setStatus(StatusLoading, fmt.Sprintf("Searching %q on %s...", q.Text, q.Engine))

	go func() {
		outcome := <-outcomes
		a.do(func() { a.onSearchDone(outcome) })
	}()
}

// onSearchDone replaces the result grid with the outcome
func (a *Application) onSearchDone(o search.Outcome) {
	a.searching = false
	a.searchButton.Enable()
	a.recordSearch(o)

	if o.Failed() {
		a.setStatus(StatusError, "Search failed: "+o.Message())
		return
	}

	a.showResults(session.New(o.Query, o.URLs))

	if len(o.URLs) == 0 {
		a.setStatus(StatusWarning, fmt.Sprintf("No images found for %q", o.Query.Text))
		return
	}
	a.setStatus(StatusSuccess, fmt.Sprintf("%d images found (%.1fs)", len(o.URLs), o.Duration.Seconds()))
}

func (a *Application) recordSearch(o search.Outcome) {
	if a.recorder == nil {
		return
	}
	q, n, err := o.Query, len(o.URLs), o.Err
	go func() {
		if _, herr := a.recorder.RecordSearch(a.ctx, q, n, err); herr != nil {
			a.log.WithError(herr).Warn("Failed to record search")
		}
	}()
}

// showResults abandons the previous thumbnails, rebuilds the cards and
// starts one preview fetch per card
func (a *Application) showResults(s session.Session) {
	a.stopThumbnails()

	a.session = s
	a.cards = make([]*ResultCard, len(s.Results))
	objects := make([]fyne.CanvasObject, len(s.Results))
	for i, r := range s.Results {
		index := r.Index
		card := NewResultCard(r,
			func(on bool) { a.onCardToggled(index, on) },
			a.showCardDetails,
		)
		a.cards[i] = card
		objects[i] = card
	}
	a.resultsGrid.Objects = objects
	a.resultsGrid.Refresh()
	a.refreshSelection()

	if len(s.Results) == 0 {
		return
	}

	batch := a.loader.Start(a.ctx, s.Results)
	a.thumbnails = batch
	go func() {
		for th := range batch.Completions() {
			a.do(func() { a.onThumbnail(batch, th) })
		}
	}()
}

// onThumbnail applies one preview completion, correlated by index. Late
// completions from an abandoned batch are dropped.
func (a *Application) onThumbnail(batch *fetch.Batch, th fetch.Thumbnail) {
	if batch != a.thumbnails || th.Index < 0 || th.Index >= len(a.cards) {
		return
	}
	card := a.cards[th.Index]
	if th.Failed() {
		card.SetFailed()
		return
	}
	if err := card.SetImageData(th.Data); err != nil {
		a.log.WithFields(logrus.Fields{"index": th.Index, "url": th.URL}).
			WithError(err).Debug("Thumbnail not decodable")
	}
}

func (a *Application) stopThumbnails() {
	if a.thumbnails == nil {
		return
	}
	if !a.thumbnails.Stop(thumbnailGrace) {
		a.log.Debug("Previous thumbnails still winding down")
	}
	a.thumbnails = nil
}

// onClearSearch resets the query, the results and the selection
func (a *Application) onClearSearch() {
	a.queryEntry.SetText("")
	a.showResults(a.session.Clear())
	a.setStatus(StatusInfo, "Search cleared")
}

func (a *Application) onCardToggled(index int, on bool) {
	a.session = a.session.SetSelected(index, on)
	a.refreshSelection()
}

func (a *Application) onToggleAll() {
	if a.session.Len() == 0 {
		return
	}
	a.session = a.session.ToggleAll()
	for i, card := range a.cards {
		card.SetChecked(a.session.IsSelected(i))
	}
	a.refreshSelection()
}

// refreshSelection updates the counter and the buttons that depend on it
func (a *Application) refreshSelection() {
	n, total := a.session.SelectedCount(), a.session.Len()
	a.selectionLabel.SetText(fmt.Sprintf("%d of %d selected", n, total))

	if a.session.AllSelected() {
		a.selectAllButton.SetText("Deselect all")
	} else {
		a.selectAllButton.SetText("Select all")
	}
	if total == 0 {
		a.selectAllButton.Disable()
	} else {
		a.selectAllButton.Enable()
	}
	if n == 0 || a.downloading {
		a.downloadButton.Disable()
	} else {
		a.downloadButton.Enable()
	}
}

// onDownload persists the selected images in the background. The gallery
// is reloaded once the batch reports completion.
func (a *Application) onDownload() {
	urls := a.session.SelectedURLs()
	if len(urls) == 0 || a.downloading {
		return
	}

	job := download.NewJob(urls, a.config.OutputDir, internal.FilenamePrefix(a.session.Query.Text))
	a.downloading = true
	a.refreshSelection()
	a.progressBar.Max = float64(len(urls))
	a.progressBar.SetValue(0)
	a.progressBar.Show()
	a.setStatus(StatusLoading, fmt.Sprintf("Downloading %d images...", len(urls)))

	events := a.manager.Start(a.ctx, job)
	go func() {
		for ev := range events {
			a.do(func() { a.onDownloadEvent(job, ev) })
		}
	}()
}

func (a *Application) onDownloadEvent(job download.Job, ev download.Event) {
	if !ev.Done {
		a.progressBar.SetValue(float64(ev.Current))
		return
	}

	a.downloading = false
	a.progressBar.Hide()
	a.refreshSelection()

	kind := StatusSuccess
	if ev.Success < ev.Total {
		kind = StatusWarning
	}
	a.setStatus(kind, fmt.Sprintf("%d of %d downloaded", ev.Success, ev.Total))
	a.reloadGallery()

	if a.recorder != nil {
		rec := history.DownloadRecord{
			ID:        job.ID,
			Prefix:    job.Prefix,
			Folder:    job.Folder,
			Requested: ev.Total,
			Succeeded: ev.Success,
		}
		go func() {
			if _, err := a.recorder.RecordDownload(context.Background(), rec); err != nil {
				a.log.WithError(err).Warn("Failed to record download")
			}
		}()
	}
}
