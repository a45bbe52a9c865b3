package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrUnsupported = errors.New("clipboard not available")

// Writer puts text on a clipboard
type Writer interface {
	WriteText(text string) error
}

// System writes to the OS clipboard
type System struct{}

func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Memory keeps the last written text. Used when no system clipboard
// exists and in tests.
type Memory struct {
	Text   string
	Writes int
}

func (m *Memory) WriteText(text string) error {
	m.Text = text
	m.Writes++
	return nil
}
