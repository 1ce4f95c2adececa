package gui

import (
	"fmt"
	"net/url"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/galleryexplorer/internal/gallery"
)

// showCardDetails previews a loaded search result at full size
func (a *Application) showCardDetails(c *ResultCard) {
	if !c.Loaded() {
		return
	}

	row, col := c.Result.Grid()
	info := fmt.Sprintf("Result #%d (row %d, column %d)", c.Result.Index+1, row+1, col+1)
	if w, h, err := imageSize(c.data); err == nil {
		info += fmt.Sprintf("\n%d × %d px, %s", w, h, gallery.FormatSize(int64(len(c.data))))
	}

	img := canvas.NewImageFromImage(c.img)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(560, 420))

	source := widget.NewLabel(c.Result.URL)
	source.Wrapping = fyne.TextWrapBreak

	copyButton := widget.NewButtonWithIcon("Copy URL", theme.ContentCopyIcon(), func() {
		a.window.Clipboard().SetContent(c.Result.URL)
		a.setStatus(StatusInfo, "URL copied")
	})
	openButton := widget.NewButtonWithIcon("Open in browser", theme.ComputerIcon(), func() {
		u, err := url.Parse(c.Result.URL)
		if err == nil {
			err = a.app.OpenURL(u)
		}
		if err != nil {
			a.setStatus(StatusError, fmt.Sprintf("Cannot open URL: %v", err))
		}
	})

	content := container.NewBorder(
		nil,
		container.NewVBox(widget.NewLabel(info), source, container.NewHBox(copyButton, openButton)),
		nil, nil,
		img,
	)
	dialog.ShowCustom("Image details", "Close", content, a.window)
}

// showFileDetails previews a gallery file at full size
func (a *Application) showFileDetails(f gallery.File) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		a.setStatus(StatusError, fmt.Sprintf("Cannot read %s: %v", f.Name, err))
		return
	}
	decoded, _, err := decodeImage(data)
	if err != nil {
		a.setStatus(StatusError, fmt.Sprintf("Cannot decode %s: %v", f.Name, err))
		return
	}

	b := decoded.Bounds()
	info := fmt.Sprintf("%s\n%d × %d px, %s", f.Name, b.Dx(), b.Dy(), gallery.FormatSize(f.Size))

	img := canvas.NewImageFromImage(decoded)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(560, 420))

	openButton := widget.NewButtonWithIcon("Show folder", theme.FolderOpenIcon(), a.openFolder)

	content := container.NewBorder(
		nil,
		container.NewVBox(widget.NewLabel(info), openButton),
		nil, nil,
		img,
	)
	dialog.ShowCustom("Image details", "Close", content, a.window)
}
