// Package cursor models "load more" pagination shared by every list source.
package cursor

import (
	"errors"

	"ehclient/lib/gallery"
)

var (
	ErrEmptyCursor = errors.New("next page requested without a cursor")
	ErrStaleCursor = errors.New("cursor does not belong to the current list")
	ErrNoMorePages = errors.New("already on the last page")
)

// Cursor is the position reached in a list source. It is only produced by
// First and Advance.
type Cursor struct {
	// LastID is the gid of the last item received so far.
	LastID string
	// Page is zero-based.
	Page    int
	Maximum int
}

func lastID(items []gallery.Gallery) string {
	if len(items) == 0 {
		return ""
	}
	return items[len(items)-1].GID
}

// First builds the cursor of a freshly fetched first page.
func First(page gallery.PageNumber, items []gallery.Gallery) Cursor {
	return Cursor{
		LastID:  lastID(items),
		Page:    page.Current,
		Maximum: page.Maximum,
	}
}

// Advance moves the cursor past a successfully fetched next page. The page
// always grows by exactly one, whatever the page reports.
func (c Cursor) Advance(page gallery.PageNumber, items []gallery.Gallery) Cursor {
	next := Cursor{
		LastID:  c.LastID,
		Page:    c.Page + 1,
		Maximum: c.Maximum,
	}
	if id := lastID(items); id != "" {
		next.LastID = id
	}
	if page.Maximum > next.Maximum {
		next.Maximum = page.Maximum
	}
	return next
}

// NextPage is the page a next fetch asks for.
func (c Cursor) NextPage() int {
	return c.Page + 1
}

func (c Cursor) IsEmpty() bool {
	return c.LastID == ""
}

func (c Cursor) HasMore() bool {
	return c.Page < c.Maximum
}

// Validate fails when a next fetch would be issued with c for a list that
// currently holds listLen items.
func (c Cursor) Validate(listLen int) error {
	if c.IsEmpty() {
		return ErrEmptyCursor
	}
	if listLen == 0 {
		return ErrStaleCursor
	}
	if !c.HasMore() {
		return ErrNoMorePages
	}
	return nil
}
