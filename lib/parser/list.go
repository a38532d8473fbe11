package parser

import (
	"strconv"
	"strings"

	"ehclient/lib/gallery"
	"ehclient/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ListItems parses a listing page in compact mode, the layout shared by the
// frontpage, popular, watched, favorites and search results.
func ListItems(doc *goquery.Document) (gallery.PageNumber, []gallery.Gallery, error) {
	table := doc.Find("table.itg")
	if table.Length() == 0 {
		if isEmptyListing(doc) {
			return gallery.PageNumber{}, []gallery.Gallery{}, nil
		}
		return gallery.PageNumber{}, nil, parseErr("listing table not found")
	}

	pageNumber, err := parsePageNumber(doc)
	if err != nil {
		return gallery.PageNumber{}, nil, err
	}

	items := []gallery.Gallery{}
	var rowErr error
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if row.Find("td.gl3c").Length() == 0 {
			// header and advertisement rows
			return true
		}
		item, err := parseListRow(row)
		if err != nil {
			rowErr = err
			return false
		}
		items = append(items, item)
		return true
	})
	if rowErr != nil {
		return gallery.PageNumber{}, nil, rowErr
	}

	return pageNumber, items, nil
}

func isEmptyListing(doc *goquery.Document) bool {
	return strings.Contains(text(doc.Find("div.ido")), "No hits found") ||
		strings.Contains(text(doc.Find("div.ido")), "No unfiltered results")
}

// parsePageNumber reads the pager, a page without one (popular) is a single
// page.
func parsePageNumber(doc *goquery.Document) (gallery.PageNumber, error) {
	pager := doc.Find("table.ptt").First()
	if pager.Length() == 0 {
		return gallery.PageNumber{}, nil
	}

	current := -1
	maximum := 0
	pager.Find("td").Each(func(_ int, td *goquery.Selection) {
		n, err := strconv.Atoi(text(td))
		if err != nil {
			return
		}
		if td.HasClass("ptds") {
			current = n - 1
		}
		if n-1 > maximum {
			maximum = n - 1
		}
	})
	if current < 0 {
		return gallery.PageNumber{}, parseErr("current page not found in pager")
	}
	return gallery.PageNumber{Current: current, Maximum: maximum}, nil
}

func parseListRow(row *goquery.Selection) (gallery.Gallery, error) {
	link := row.Find("td.gl3c a").First()
	href, ok := link.Attr("href")
	if !ok {
		return gallery.Gallery{}, parseErr("gallery link not found")
	}
	gid, token, err := gallery.IdentityFromURL(href)
	if err != nil {
		return gallery.Gallery{}, parseErr("gallery link: %s", err.Error())
	}

	title := text(link.Find("div.glink"))
	if title == "" {
		return gallery.Gallery{}, parseErr("gallery %s has no title", gid)
	}

	category, ok := gallery.ParseCategory(text(row.Find("td.gl1c div.cn")))
	if !ok {
		return gallery.Gallery{}, parseErr("gallery %s has unknown category", gid)
	}

	posted := row.Find(`td.gl2c div[id^="posted_"]`)
	publishedTime, err := parseTime(text(posted))
	if err != nil {
		return gallery.Gallery{}, parseErr("gallery %s has bad posted time: %s", gid, err.Error())
	}

	rating, ok := parseRatingStyle(row.Find("td.gl2c div.ir").AttrOr("style", ""))
	if !ok {
		return gallery.Gallery{}, parseErr("gallery %s has no rating", gid)
	}

	img := row.Find("td.gl2c div.glthumb img").First()
	cover := img.AttrOr("data-src", "")
	if cover == "" {
		cover = img.AttrOr("src", "")
	}

	tags := []string{}
	link.Find("div.gt").Each(func(_ int, tag *goquery.Selection) {
		if v, ok := tag.Attr("title"); ok && v != "" {
			tags = append(tags, v)
		}
	})

	pageCount := 0
	row.Find("td.gl4c div").Each(func(_ int, div *goquery.Selection) {
		t := text(div)
		if strings.HasSuffix(t, "pages") || strings.HasSuffix(t, "page") {
			pageCount, _ = htmlutil.FirstInt(t)
		}
	})

	return gallery.Gallery{
		GID:           gid,
		Token:         token,
		Title:         title,
		Category:      category,
		Rating:        rating,
		CoverURL:      cover,
		Tags:          tags,
		Uploader:      text(row.Find("td.gl4c a").First()),
		PublishedTime: publishedTime,
		PageCount:     pageCount,
		DetailURL:     href,
	}, nil
}
