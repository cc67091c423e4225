package host

import (
	"fmt"
	"sync"
	"unicode/utf8"
)

// Selection represents a range of selected text.
// Anchor is where the selection started; Head is the cursor position.
// When Anchor == Head there is no selection.
type Selection struct {
	Anchor int
	Head   int
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound of the selection.
func (s Selection) Start() int {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() int {
	return max(s.Anchor, s.Head)
}

// Document is an in-memory editor: a text buffer plus one selection.
// It implements Editor and is safe for concurrent use.
type Document struct {
	mu   sync.RWMutex
	path string
	text string
	sel  Selection
}

// NewDocument creates a document holding text with the cursor at offset 0.
func NewDocument(text string) *Document {
	return &Document{text: text}
}

// NewFileDocument creates a document that remembers the path it was read from.
func NewFileDocument(path, text string) *Document {
	return &Document{path: path, text: text}
}

// Path returns the file path of the document, if any.
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// Text returns the full document text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Selection returns the current selection.
func (d *Document) Selection() Selection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sel
}

// SetSelection sets the selection from anchor to head (byte offsets).
func (d *Document) SetSelection(anchor, head int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, off := range []int{anchor, head} {
		if err := d.checkOffset(off); err != nil {
			return err
		}
	}
	d.sel = Selection{Anchor: anchor, Head: head}
	return nil
}

// SelectAll selects the whole document.
func (d *Document) SelectAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sel = Selection{Anchor: 0, Head: len(d.text)}
}

// ReplaceSelection replaces the selected text (or inserts at the cursor) and
// leaves the new text selected.
func (d *Document) ReplaceSelection(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start, end := d.sel.Start(), d.sel.End()
	d.text = d.text[:start] + text + d.text[end:]
	d.sel = Selection{Anchor: start, Head: start + len(text)}
}

// SetText replaces the whole document and collapses the selection to offset 0.
func (d *Document) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.sel = Selection{}
}

// CurrentSelection implements Selector.
func (d *Document) CurrentSelection() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text[d.sel.Start():d.sel.End()], nil
}

// HasSelection implements Selector.
func (d *Document) HasSelection() (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.sel.IsEmpty(), nil
}

// CurrentBufferText implements BufferReader.
func (d *Document) CurrentBufferText() (string, error) {
	return d.Text(), nil
}

// checkOffset must be called with the lock held.
func (d *Document) checkOffset(off int) error {
	if off < 0 || off > len(d.text) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrOffsetOutOfRange, off, len(d.text))
	}
	if off < len(d.text) && !utf8.RuneStart(d.text[off]) {
		return fmt.Errorf("%w: %d", ErrNotCharBoundary, off)
	}
	return nil
}
