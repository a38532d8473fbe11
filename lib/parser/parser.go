// Package parser turns E-Hentai html pages into gallery models.
//
// Every parser either returns a fully populated value or an error wrapping
// ErrParse, none of them do any I/O.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ehclient/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var ErrParse = errors.New("unexpected document shape")

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// Document builds a goquery document from a response body.
func Document(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err.Error())
	}
	return doc, nil
}

const timeLayout = "2006-01-02 15:04"

func parseTime(text string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, strings.TrimSpace(text), time.UTC)
}

var ratingPositionRegex = regexp.MustCompile(`background-position:\s*(-?\d+)px\s+(-?\d+)px`)

// the rating widget is a sprite, every 16px to the left is one star lost and
// the second row (-21px) marks a half star.
func parseRatingStyle(style string) (float64, bool) {
	groups := ratingPositionRegex.FindStringSubmatch(style)
	if len(groups) < 3 {
		return 0, false
	}
	x, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0, false
	}
	y, err := strconv.Atoi(groups[2])
	if err != nil {
		return 0, false
	}

	rating := 5 + float64(x)/16
	if y == -21 {
		rating -= 0.5
	}
	if rating < 0 {
		rating = 0
	}
	return rating, true
}

var onclickURLRegex = regexp.MustCompile(`(?:popUp|location)\s*(?:\(|=)\s*'([^']+)'`)

func onclickURL(sel *goquery.Selection) string {
	groups := onclickURLRegex.FindStringSubmatch(sel.AttrOr("onclick", ""))
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

func text(sel *goquery.Selection) string {
	return htmlutil.Text(sel)
}
