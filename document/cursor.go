package document

import (
	"fmt"
	"sync"
)

// Cursor tracks the current page of a document. The index always stays in
// [0, PageCount); moves past either end are refused rather than clamped.
type Cursor struct {
	mu  sync.Mutex
	doc *Document
	cur int
}

// NewCursor returns a cursor on the first page of doc.
func NewCursor(doc *Document) *Cursor {
	return &Cursor{doc: doc}
}

// Document returns the document the cursor walks.
func (c *Cursor) Document() *Document { return c.doc }

// Current returns the current page.
func (c *Cursor) Current() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.pages[c.cur]
}

// Next moves to the following page. It reports false on the last page.
func (c *Cursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur >= len(c.doc.pages)-1 {
		return false
	}
	c.cur++
	return true
}

// Prev moves to the preceding page. It reports false on the first page.
func (c *Cursor) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == 0 {
		return false
	}
	c.cur--
	return true
}

// Seek moves to 0-based index i, or returns a PageIndexError and stays put.
func (c *Cursor) Seek(i int) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.doc.Page(i)
	if err != nil {
		return c.doc.pages[c.cur], err
	}
	c.cur = i
	return p, nil
}

// Label returns "Page n/N".
func (c *Cursor) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Page %d/%d", c.cur+1, len(c.doc.pages))
}

