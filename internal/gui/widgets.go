package gui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"codeberg.org/snonux/galleryexplorer/internal/session"
)

const (
	cardImageSize    = 160
	galleryImageSize = 140
)

// decodeImage turns fetched bytes into an image. It must only be called
// on the UI goroutine.
func decodeImage(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}

// imageSize reads the dimensions without decoding the pixels
func imageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// cardState is the preview state of a result card
type cardState int

const (
	cardLoading cardState = iota
	cardLoaded
	cardFailed
)

// ResultCard shows one search result with its selection checkbox
type ResultCard struct {
	widget.BaseWidget

	Result session.ImageResult

	container   *fyne.Container
	imageCanvas *canvas.Image
	placeholder *widget.Label
	check       *widget.Check
	infoButton  *widget.Button

	state cardState
	data  []byte
	img   image.Image
}

// NewResultCard creates a card in the loading state. onToggle is called
// with the new checkbox value, onDetails when the info button is pressed.
func NewResultCard(r session.ImageResult, onToggle func(bool), onDetails func(*ResultCard)) *ResultCard {
	c := &ResultCard{Result: r}

	c.imageCanvas = canvas.NewImageFromResource(nil)
	c.imageCanvas.FillMode = canvas.ImageFillContain
	c.imageCanvas.SetMinSize(fyne.NewSize(cardImageSize, cardImageSize))

	c.placeholder = widget.NewLabel("Loading...")
	c.placeholder.Alignment = fyne.TextAlignCenter

	c.check = widget.NewCheck(fmt.Sprintf("#%d", r.Index+1), onToggle)

	c.infoButton = widget.NewButtonWithIcon("", theme.InfoIcon(), func() {
		if onDetails != nil {
			onDetails(c)
		}
	})
	c.infoButton.Disable()

	c.container = container.NewBorder(
		nil,
		container.NewBorder(nil, nil, c.check, c.infoButton),
		nil, nil,
		container.NewStack(c.placeholder, c.imageCanvas),
	)

	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer implements fyne.Widget
func (c *ResultCard) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.container)
}

// SetImageData decodes data and shows it. A decode failure turns the card
// into the failure placeholder.
func (c *ResultCard) SetImageData(data []byte) error {
	img, _, err := decodeImage(data)
	if err != nil {
		c.SetFailed()
		return err
	}

	c.state = cardLoaded
	c.data = data
	c.img = img
	c.imageCanvas.Image = img
	c.imageCanvas.Refresh()
	c.placeholder.Hide()
	c.infoButton.Enable()
	return nil
}

// SetFailed shows the failure placeholder
func (c *ResultCard) SetFailed() {
	c.state = cardFailed
	c.placeholder.SetText("Image unavailable")
	c.placeholder.Importance = widget.DangerImportance
	c.placeholder.Show()
	c.placeholder.Refresh()
}

// SetChecked updates the checkbox to match the selection
func (c *ResultCard) SetChecked(on bool) {
	if c.check.Checked != on {
		c.check.SetChecked(on)
	}
}

// Loaded reports whether the preview was decoded successfully
func (c *ResultCard) Loaded() bool {
	return c.state == cardLoaded
}

// ImageDisplay shows a single image with a caption. Used by the slideshow.
type ImageDisplay struct {
	widget.BaseWidget

	container   *fyne.Container
	imageCanvas *canvas.Image
	imageLabel  *widget.Label

	currentImage string
}

// NewImageDisplay creates a new image display widget
func NewImageDisplay() *ImageDisplay {
	d := &ImageDisplay{}

	d.imageCanvas = canvas.NewImageFromResource(nil)
	d.imageCanvas.FillMode = canvas.ImageFillContain
	d.imageCanvas.SetMinSize(fyne.NewSize(480, 360))

	d.imageLabel = widget.NewLabel("No image")
	d.imageLabel.Alignment = fyne.TextAlignCenter

	d.container = container.NewBorder(
		nil,
		d.imageLabel,
		nil, nil,
		d.imageCanvas,
	)

	d.ExtendBaseWidget(d)
	return d
}

// CreateRenderer implements fyne.Widget
func (d *ImageDisplay) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.container)
}

// SetImage loads and displays the image at imagePath with caption
func (d *ImageDisplay) SetImage(imagePath, caption string) {
	if imagePath == "" {
		d.Clear()
		return
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		d.imageLabel.SetText(fmt.Sprintf("Error loading image: %v", err))
		return
	}

	img, _, err := decodeImage(data)
	if err != nil {
		d.imageLabel.SetText(fmt.Sprintf("Error decoding %s: %v", filepath.Base(imagePath), err))
		return
	}

	d.currentImage = imagePath
	d.imageCanvas.Image = img
	d.imageCanvas.Refresh()
	d.imageLabel.SetText(caption)
}

// Clear clears the display
func (d *ImageDisplay) Clear() {
	d.currentImage = ""
	d.imageCanvas.Image = nil
	d.imageCanvas.Refresh()
	d.imageLabel.SetText("No image")
}
