package gui

import (
	"time"

	"fyne.io/fyne/v2/widget"
)

// StatusKind classifies a status bar message
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
	StatusLoading
)

// statusRevertDelay is how long a message stays before "Ready" returns
var statusRevertDelay = 6 * time.Second

// importance maps a kind onto the label style
func (k StatusKind) importance() widget.Importance {
	switch k {
	case StatusSuccess:
		return widget.SuccessImportance
	case StatusWarning:
		return widget.WarningImportance
	case StatusError:
		return widget.DangerImportance
	case StatusLoading:
		return widget.HighImportance
	default:
		return widget.MediumImportance
	}
}

// reverts reports whether a message of this kind falls back to "Ready"
func (k StatusKind) reverts() bool {
	return k != StatusLoading
}

// setStatus shows message in the status bar. Must run on the UI
// goroutine. A non-loading message reverts to "Ready" unless another
// message replaced it in the meantime.
func (a *Application) setStatus(kind StatusKind, message string) {
	a.statusSeq++
	seq := a.statusSeq

	a.statusLabel.Importance = kind.importance()
	a.statusLabel.SetText(message)

	if !kind.reverts() {
		return
	}
	time.AfterFunc(statusRevertDelay, func() {
		a.do(func() {
			if a.statusSeq != seq {
				return
			}
			a.statusLabel.Importance = widget.MediumImportance
			a.statusLabel.SetText("Ready")
		})
	})
}
