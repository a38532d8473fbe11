package htmlutil

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		if node.Data == "br" {
			buffer.WriteByte('\n')
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`[ \t]{2,}`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// Clean strips non printable characters, surrounding whitespace and runs of
// inner spaces. Line breaks are kept.
func Clean(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text is GetText over every node of the selection, cleaned.
func Text(sel *goquery.Selection) string {
	var out strings.Builder
	for _, n := range sel.Nodes {
		out.WriteString(GetText(n))
	}
	return Clean(out.String())
}

var styleURLRegex = regexp.MustCompile(`url\((['"]?)(.+?)(['"]?)\)`)

// StyleURL extracts the first url(...) out of an inline style attribute.
func StyleURL(style string) string {
	groups := styleURLRegex.FindStringSubmatch(style)
	if len(groups) < 3 {
		return ""
	}
	return groups[2]
}

var styleOffsetRegex = regexp.MustCompile(`\)\s*(-?\d+)(px)?`)

// StyleOffsetX extracts the horizontal offset that follows url(...) in a
// background shorthand, "url(x) -200px 0" gives -200.
func StyleOffsetX(style string) int {
	groups := styleOffsetRegex.FindStringSubmatch(style)
	if len(groups) < 2 {
		return 0
	}
	v, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0
	}
	return v
}

var digitsRegex = regexp.MustCompile(`-?\d[\d,]*`)

// FirstInt finds the first integer in text, thousands separators allowed.
func FirstInt(text string) (int, bool) {
	match := digitsRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}
	return v, true
}
