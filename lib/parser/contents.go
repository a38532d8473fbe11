package parser

import (
	"strconv"
	"strings"

	"ehclient/lib/gallery"

	"github.com/PuerkitoBio/goquery"
)

// PreContent points at the page that holds the image of gallery page Index.
type PreContent struct {
	Index int
	URL   string
}

// ImagePreContents lists the image pages linked from one page of a detail
// page's thumbnail grid, in order, never past pageCount.
func ImagePreContents(doc *goquery.Document, pageCount int) ([]PreContent, error) {
	links := doc.Find("#gdt a")
	if links.Length() == 0 {
		return nil, parseErr("thumbnail grid not found")
	}

	out := []PreContent{}
	var linkErr error
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(out) >= pageCount {
			return false
		}
		href := a.AttrOr("href", "")
		if href == "" {
			linkErr = parseErr("thumbnail without link")
			return false
		}
		index, err := strconv.Atoi(strings.TrimSpace(a.Find("img").AttrOr("alt", "")))
		if err != nil {
			linkErr = parseErr("thumbnail %q has no page index", href)
			return false
		}
		if index > pageCount {
			return false
		}
		out = append(out, PreContent{Index: index, URL: href})
		return true
	})
	if linkErr != nil {
		return nil, linkErr
	}
	if len(out) == 0 {
		return nil, parseErr("no image pages within %d pages", pageCount)
	}
	return out, nil
}

// GalleryContent parses a single image page.
func GalleryContent(doc *goquery.Document, tag int) (gallery.GalleryContent, error) {
	src := doc.Find("img#img").AttrOr("src", "")
	if src == "" {
		return gallery.GalleryContent{}, parseErr("image of page %d not found", tag)
	}
	return gallery.GalleryContent{Tag: tag, URL: src}, nil
}
