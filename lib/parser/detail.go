package parser

import (
	"regexp"
	"strconv"
	"strings"

	"ehclient/lib/gallery"
	"ehclient/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// DetailPage is everything a gallery detail page yields.
type DetailPage struct {
	Detail gallery.GalleryDetail
	APIKey gallery.APIKey
	APIUID int
}

var (
	apiKeyRegex = regexp.MustCompile(`var\s+apikey\s*=\s*"([0-9a-f]+)"`)
	apiUIDRegex = regexp.MustCompile(`var\s+apiuid\s*=\s*(-?\d+)`)
	gidRegex    = regexp.MustCompile(`var\s+gid\s*=\s*(\d+)`)
)

func GalleryDetail(doc *goquery.Document) (DetailPage, error) {
	title := text(doc.Find("#gn"))
	if title == "" {
		return DetailPage{}, parseErr("detail title not found")
	}

	category, ok := gallery.ParseCategory(text(doc.Find("#gdc div.cs")))
	if !ok {
		return DetailPage{}, parseErr("detail category not found")
	}

	scripts := text(doc.Find("script"))
	keyGroups := apiKeyRegex.FindStringSubmatch(scripts)
	uidGroups := apiUIDRegex.FindStringSubmatch(scripts)
	if len(keyGroups) < 2 || len(uidGroups) < 2 {
		return DetailPage{}, parseErr("api credentials not found")
	}
	apiuid, err := strconv.Atoi(uidGroups[1])
	if err != nil {
		return DetailPage{}, parseErr("bad apiuid: %s", err.Error())
	}

	detail := gallery.GalleryDetail{
		Title:      title,
		JPNTitle:   text(doc.Find("#gj")),
		Category:   category,
		Uploader:   text(doc.Find("#gdn a").First()),
		CoverURL:   htmlutil.StyleURL(doc.Find("#gd1 div").First().AttrOr("style", "")),
		ArchiveURL: ArchiveURL(doc),
		TorrentURL: torrentURL(doc),
	}
	// the favorite icon only exists once the gallery is in a category
	detail.IsFavorited = doc.Find("#fav div.i").Length() > 0
	if groups := gidRegex.FindStringSubmatch(scripts); len(groups) > 1 {
		detail.GID = groups[1]
	}

	var fieldErr error
	doc.Find("#gdd tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSuffix(text(row.Find("td.gdt1")), ":")
		value := text(row.Find("td.gdt2"))
		switch label {
		case "Posted":
			detail.PublishedTime, fieldErr = parseTime(value)
		case "Language":
			detail.Language = strings.TrimSpace(strings.TrimSuffix(value, "TR"))
		case "File Size":
			detail.SizeText = value
		case "Length":
			n, ok := htmlutil.FirstInt(value)
			if !ok {
				fieldErr = parseErr("bad length %q", value)
			}
			detail.PageCount = n
		case "Favorited":
			switch value {
			case "Never":
			case "Once":
				detail.FavoritedCount = 1
			default:
				detail.FavoritedCount, _ = htmlutil.FirstInt(value)
			}
		}
		return fieldErr == nil
	})
	if fieldErr != nil {
		return DetailPage{}, parseErr("detail metadata: %s", fieldErr.Error())
	}
	if detail.PublishedTime.IsZero() || detail.PageCount == 0 {
		return DetailPage{}, parseErr("detail metadata incomplete")
	}

	ratingText := strings.TrimPrefix(text(doc.Find("#rating_label")), "Average:")
	if rating, err := strconv.ParseFloat(strings.TrimSpace(ratingText), 64); err == nil {
		detail.Rating = rating
	}
	detail.RatingCount, _ = htmlutil.FirstInt(text(doc.Find("#rating_count")))

	detail.Tags = parseTagList(doc.Find("#taglist tr"))

	return DetailPage{
		Detail: detail,
		APIKey: gallery.APIKey(keyGroups[1]),
		APIUID: apiuid,
	}, nil
}

func parseTagList(rows *goquery.Selection) []gallery.GalleryTag {
	tags := []gallery.GalleryTag{}
	rows.Each(func(_ int, row *goquery.Selection) {
		namespace := strings.TrimSuffix(text(row.Find("td.tc")), ":")
		contents := []string{}
		row.Find("td div a").Each(func(_ int, a *goquery.Selection) {
			if t := text(a); t != "" {
				contents = append(contents, t)
			}
		})
		if namespace == "" || len(contents) == 0 {
			return
		}
		tags = append(tags, gallery.GalleryTag{Namespace: namespace, Contents: contents})
	})
	return tags
}

func findSideLink(doc *goquery.Document, substr string) string {
	var found string
	doc.Find("#gd5 p a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link := onclickURL(a)
		if link == "" {
			link = a.AttrOr("href", "")
		}
		if strings.Contains(link, substr) {
			found = link
			return false
		}
		return true
	})
	return found
}

// ArchiveURL returns the archiver link of a detail page or "" when the
// gallery has no archive.
func ArchiveURL(doc *goquery.Document) string {
	return findSideLink(doc, "archiver.php")
}

func torrentURL(doc *goquery.Document) string {
	return findSideLink(doc, "gallerytorrents.php")
}

// AlterImagesURL returns the link that switches the detail page to the
// sprite thumbnail layout.
func AlterImagesURL(doc *goquery.Document) (string, error) {
	var found string
	doc.Find("#gdo4 div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if text(div) != "Normal" {
			return true
		}
		found = onclickURL(div)
		return false
	})
	if found == "" {
		return "", parseErr("alternate image link not found")
	}
	return found, nil
}

// AlterImages parses the sprite thumbnails of a detail page.
func AlterImages(doc *goquery.Document) ([]gallery.GalleryAlterData, error) {
	thumbs := doc.Find("#gdt div.gdtm")
	if thumbs.Length() == 0 {
		return nil, parseErr("thumbnails not found")
	}

	out := []gallery.GalleryAlterData{}
	var thumbErr error
	thumbs.EachWithBreak(func(i int, thumb *goquery.Selection) bool {
		style := thumb.Find("div[style]").First().AttrOr("style", "")
		sprite := htmlutil.StyleURL(style)
		if sprite == "" {
			thumbErr = parseErr("thumbnail %d has no sprite", i)
			return false
		}
		index, err := strconv.Atoi(thumb.Find("img").AttrOr("alt", ""))
		if err != nil {
			index = i + 1
		}
		out = append(out, gallery.GalleryAlterData{
			Index:     index,
			SpriteURL: sprite,
			OffsetX:   htmlutil.StyleOffsetX(style),
		})
		return true
	})
	if thumbErr != nil {
		return nil, thumbErr
	}
	return out, nil
}
