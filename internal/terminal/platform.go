package terminal

import (
	"errors"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// ErrNoClipboard is returned when the platform has no usable clipboard.
var ErrNoClipboard = errors.New("terminal: no clipboard available")

// SystemClipboard writes to the desktop clipboard.
type SystemClipboard struct {
	unsupported bool
	write       func(string) error
}

// NewClipboard returns the clipboard for the running OS.
func NewClipboard() *SystemClipboard {
	return &SystemClipboard{unsupported: clipboard.Unsupported, write: clipboard.WriteAll}
}

// WriteText replaces the clipboard contents with text.
func (c *SystemClipboard) WriteText(text string) error {
	if c.unsupported {
		return ErrNoClipboard
	}
	return c.write(text)
}

// BrowserOpener hands URLs to the desktop's default handler.
type BrowserOpener struct{}

// OpenURL opens u with xdg-open, open or start depending on the OS.
func (BrowserOpener) OpenURL(u string) error {
	return browser.OpenURL(u)
}
