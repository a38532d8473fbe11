package parser

import (
	"regexp"
	"strings"

	"ehclient/lib/gallery"

	"github.com/PuerkitoBio/goquery"
)

// GalleryArchive parses the hath section of the archiver popup along with the
// balances it shows, which are nil when the page does not show them.
func GalleryArchive(doc *goquery.Document) (gallery.GalleryArchive, *gallery.Funds, error) {
	archives := []gallery.HathArchive{}
	var cellErr error
	doc.Find("#db table td").EachWithBreak(func(i int, td *goquery.Selection) bool {
		paragraphs := td.Find("p")
		if paragraphs.Length() < 3 {
			return true
		}
		resolution, ok := gallery.ParseResolution(text(paragraphs.Eq(0)))
		if !ok {
			cellErr = parseErr("unknown archive resolution %q", text(paragraphs.Eq(0)))
			return false
		}
		archives = append(archives, gallery.HathArchive{
			Resolution: resolution,
			FileSize:   text(paragraphs.Eq(1)),
			GPPrice:    text(paragraphs.Eq(2)),
		})
		return true
	})
	if cellErr != nil {
		return gallery.GalleryArchive{}, nil, cellErr
	}
	if len(archives) == 0 {
		return gallery.GalleryArchive{}, nil, parseErr("no hath archives found")
	}

	return gallery.GalleryArchive{HathArchives: archives}, Funds(doc), nil
}

var fundsRegex = regexp.MustCompile(`([\d,]+)\s*GP\b.*?([\d,]+)\s*[Cc]redits`)

// Funds finds the "<n> GP ... <n> Credits" balance line of the archiver or
// the exchange page, nil when there is none. Prices inside the archive table
// are never mistaken for balances.
func Funds(doc *goquery.Document) *gallery.Funds {
	var funds *gallery.Funds
	doc.Find("p, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.ParentsFiltered("table").Length() > 0 {
			return true
		}
		if sel.Children().Length() > 0 && sel.Is("div") {
			return true
		}
		groups := fundsRegex.FindStringSubmatch(text(sel))
		if len(groups) < 3 {
			return true
		}
		funds = &gallery.Funds{
			GP:      strings.ReplaceAll(groups[1], ",", ""),
			Credits: strings.ReplaceAll(groups[2], ",", ""),
		}
		return false
	})
	return funds
}

// DownloadCommandResponse reads the acknowledgment shown after posting a hath
// download command. An unrecognized message is a valid DOWNLOAD_COMMAND_UNKNOWN.
func DownloadCommandResponse(doc *goquery.Document) (gallery.DownloadCommandResponse, error) {
	message := text(doc.Find("#db p"))
	if message == "" {
		return gallery.DOWNLOAD_COMMAND_UNKNOWN, parseErr("download command response not found")
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "insufficient"):
		return gallery.DOWNLOAD_COMMAND_INSUFFICIENT_FUNDS, nil
	case strings.Contains(lower, "already"):
		return gallery.DOWNLOAD_COMMAND_ALREADY_REQUESTED, nil
	case strings.Contains(lower, "queued"), strings.Contains(lower, "will start downloading"):
		return gallery.DOWNLOAD_COMMAND_SUCCESS, nil
	default:
		return gallery.DOWNLOAD_COMMAND_UNKNOWN, nil
	}
}
