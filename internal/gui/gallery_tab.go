package gui

import (
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/galleryexplorer/internal/gallery"
)

// maxGalleryCards caps the rendered gallery; the count label still shows
// every file
const maxGalleryCards = 60

func (a *Application) buildGalleryTab() fyne.CanvasObject {
	a.galleryLabel = widget.NewLabel("")
	a.galleryGrid = container.New(layout.NewGridLayoutWithColumns(5))

	refreshButton := ttwidget.NewButtonWithIcon("", theme.ViewRefreshIcon(), a.reloadGallery)
	refreshButton.SetToolTip("Reload gallery")
	openButton := ttwidget.NewButtonWithIcon("", theme.FolderOpenIcon(), a.openFolder)
	openButton.SetToolTip("Open download folder")
	a.slideshowBtn = ttwidget.NewButtonWithIcon("Slideshow", theme.MediaPlayIcon(), a.onSlideshow)
	a.clearGalleryB = ttwidget.NewButtonWithIcon("", theme.DeleteIcon(), a.onClearGallery)
	a.clearGalleryB.Importance = widget.DangerImportance

	toolbar := container.NewHBox(
		refreshButton,
		openButton,
		widget.NewSeparator(),
		a.slideshowBtn,
		layout.NewSpacer(),
		a.clearGalleryB,
	)

	return container.NewBorder(
		container.NewVBox(toolbar, a.galleryLabel, widget.NewSeparator()),
		nil, nil, nil,
		container.NewVScroll(a.galleryGrid),
	)
}

// reloadGallery rescans the folder and rebuilds the gallery cards
func (a *Application) reloadGallery() {
	files, err := gallery.Files(a.config.OutputDir)
	if err != nil {
		a.galleryLabel.SetText(fmt.Sprintf("Cannot read %s: %v", a.config.OutputDir, err))
		a.galleryGrid.Objects = nil
		a.galleryGrid.Refresh()
		return
	}

	a.galleryLabel.SetText(fmt.Sprintf("%d images in %s", len(files), a.config.OutputDir))

	shown := files
	if len(shown) > maxGalleryCards {
		shown = shown[:maxGalleryCards]
	}
	objects := make([]fyne.CanvasObject, len(shown))
	for i, f := range shown {
		objects[i] = a.newGalleryCard(f)
	}
	a.galleryGrid.Objects = objects
	a.galleryGrid.Refresh()

	if len(files) == 0 {
		a.slideshowBtn.Disable()
		a.clearGalleryB.Disable()
	} else {
		a.slideshowBtn.Enable()
		a.clearGalleryB.Enable()
	}
}

func (a *Application) newGalleryCard(f gallery.File) fyne.CanvasObject {
	img := canvas.NewImageFromFile(f.Path)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(galleryImageSize, galleryImageSize))

	name := widget.NewLabel(f.Name)
	name.Truncation = fyne.TextTruncateEllipsis
	size := widget.NewLabel(gallery.FormatSize(f.Size))
	size.TextStyle = fyne.TextStyle{Italic: true}

	info := widget.NewButtonWithIcon("", theme.InfoIcon(), func() {
		a.showFileDetails(f)
	})

	return container.NewBorder(
		nil,
		container.NewBorder(nil, nil, nil, info, container.NewVBox(name, size)),
		nil, nil,
		img,
	)
}

// onClearGallery asks for confirmation before deleting every image
func (a *Application) onClearGallery() {
	names, err := gallery.List(a.config.OutputDir)
	if err != nil {
		a.setStatus(StatusError, err.Error())
		return
	}
	if len(names) == 0 {
		a.setStatus(StatusInfo, "Gallery is already empty")
		return
	}

	msg := fmt.Sprintf("Delete all %d images in\n%s?\n\nThis cannot be undone.", len(names), a.config.OutputDir)
	dialog.ShowConfirm("Clear gallery", msg, func(ok bool) {
		if !ok {
			return
		}
		n, err := gallery.Clear(a.config.OutputDir)
		var fsErr *gallery.FilesystemError
		switch {
		case errors.As(err, &fsErr):
			a.setStatus(StatusError, fmt.Sprintf("Removed %d images, then failed: %v", fsErr.Removed, fsErr.Cause))
		case err != nil:
			a.setStatus(StatusError, err.Error())
		default:
			a.setStatus(StatusSuccess, fmt.Sprintf("Removed %d images", n))
		}
		a.reloadGallery()
	}, a.window)
}

func (a *Application) onSlideshow() {
	if a.slideshow != nil {
		a.slideshow.window.RequestFocus()
		return
	}
	a.slideshow = newSlideshowWindow(a)
	a.slideshow.window.Show()
	a.slideshow.start()
}

// slideshowWindow cycles through the gallery in its own window. Every
// tick rescans the folder.
type slideshowWindow struct {
	app     *Application
	window  fyne.Window
	display *ImageDisplay
	show    *gallery.Slideshow

	speed      *widget.Slider
	speedLabel *widget.Label
	playButton *widget.Button

	ticker  *time.Ticker
	stopped chan struct{}
}

func newSlideshowWindow(a *Application) *slideshowWindow {
	s := &slideshowWindow{
		app:     a,
		window:  a.app.NewWindow("Slideshow"),
		display: NewImageDisplay(),
		show:    gallery.NewSlideshow(a.config.OutputDir),
	}

	s.speed = widget.NewSlider(1, gallery.MaxSpeed)
	s.speed.Step = 1
	s.speed.SetValue(float64(gallery.SpeedFor(a.config.SlideshowInterval)))
	s.speedLabel = widget.NewLabel("")
	s.updateSpeedLabel()
	s.speed.OnChanged = func(float64) {
		s.updateSpeedLabel()
		if s.ticker != nil {
			s.ticker.Reset(s.interval())
		}
	}

	s.playButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), s.togglePlay)
	nextButton := widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() { s.tick() })

	controls := container.NewBorder(nil, nil,
		container.NewHBox(s.playButton, nextButton),
		s.speedLabel,
		s.speed,
	)

	s.window.SetContent(container.NewBorder(nil, controls, nil, nil, s.display))
	s.window.Resize(fyne.NewSize(800, 600))
	s.window.SetOnClosed(func() {
		s.stop()
		a.slideshow = nil
	})
	return s
}

func (s *slideshowWindow) interval() time.Duration {
	return gallery.Interval(int(s.speed.Value))
}

func (s *slideshowWindow) updateSpeedLabel() {
	s.speedLabel.SetText(fmt.Sprintf("Speed %d (%.1fs)", int(s.speed.Value), s.interval().Seconds()))
}

// start shows the first slide and begins ticking. Nothing ticks when
// the gallery is already empty.
func (s *slideshowWindow) start() {
	if !s.tick() {
		s.setPlaying(false)
		return
	}
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.interval())
	s.stopped = make(chan struct{})
	ticker, stopped := s.ticker, s.stopped
	go func() {
		for {
			select {
			case <-ticker.C:
				s.app.do(func() { s.tick() })
			case <-stopped:
				return
			}
		}
	}()
	s.setPlaying(true)
}

// stop halts the ticker; the window stays open
func (s *slideshowWindow) stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stopped)
	s.ticker = nil
	s.setPlaying(false)
}

func (s *slideshowWindow) setPlaying(playing bool) {
	if playing {
		s.playButton.SetText("Pause")
		s.playButton.SetIcon(theme.MediaPauseIcon())
		return
	}
	s.playButton.SetText("Play")
	s.playButton.SetIcon(theme.MediaPlayIcon())
}

func (s *slideshowWindow) togglePlay() {
	if s.ticker != nil {
		s.stop()
	} else {
		s.start()
	}
}

// tick advances to the next image and reports whether one was shown.
// An empty gallery stops the show.
func (s *slideshowWindow) tick() bool {
	slide, err := s.show.Next()
	if errors.Is(err, gallery.ErrEmpty) {
		s.stop()
		s.display.Clear()
		s.app.setStatus(StatusInfo, "Slideshow stopped: gallery is empty")
		return false
	}
	if err != nil {
		s.stop()
		s.app.setStatus(StatusError, err.Error())
		return false
	}
	caption := fmt.Sprintf("%d / %d  %s", slide.Position, slide.Total, slide.Name)
	s.display.SetImage(slide.Path, caption)
	return true
}
