package commands

import (
	"fmt"
	"os"
	"strings"

	"ehclient/lib/gallery"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderGalleries(galleries []gallery.Gallery) {
	t := newTable(table.Row{"GID", "Category", "Title", "Rating", "Pages", "Uploader", "URL"})
	for _, g := range galleries {
		t.AppendRow(table.Row{
			g.GID,
			g.Category,
			truncate(g.Title, 60),
			fmt.Sprintf("%.1f", g.Rating),
			g.PageCount,
			g.Uploader,
			g.DetailURL,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d galleries", len(galleries))})
	t.Render()
}

func renderDetail(d gallery.GalleryDetail) {
	t := newTable(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Title", d.Title},
		{"Japanese title", d.JPNTitle},
		{"Category", d.Category},
		{"Language", d.Language},
		{"Uploader", d.Uploader},
		{"Published", d.PublishedTime.Format("2006-01-02 15:04")},
		{"Rating", fmt.Sprintf("%.2f (%d)", d.Rating, d.RatingCount)},
		{"Favorited", fmt.Sprintf("%d, by you: %t", d.FavoritedCount, d.IsFavorited)},
		{"Pages", d.PageCount},
		{"Size", d.SizeText},
	})
	t.Render()

	if len(d.Tags) == 0 {
		return
	}
	tags := newTable(table.Row{"Namespace", "Tags"})
	for _, tag := range d.Tags {
		tags.AppendRow(table.Row{tag.Namespace, strings.Join(tag.Contents, ", ")})
	}
	tags.Render()
}

func renderComments(comments []gallery.GalleryComment) {
	t := newTable(table.Row{"ID", "Author", "Score", "Posted", "Comment"})
	for _, c := range comments {
		t.AppendRow(table.Row{c.CommentID, c.Author, c.Score, c.PostedTime, truncate(c.Content, 80)})
	}
	t.Render()
}

func renderTorrents(torrents []gallery.GalleryTorrent) {
	t := newTable(table.Row{"File", "Size", "Seeds", "Peers", "Downloads", "Posted", "Magnet"})
	for _, torrent := range torrents {
		t.AppendRow(table.Row{
			torrent.FileName,
			torrent.FileSize,
			torrent.Seeds,
			torrent.Peers,
			torrent.Downloads,
			torrent.PostedTime,
			"magnet:?xt=urn:btih:" + torrent.Hash,
		})
	}
	t.Render()
}

func renderContents(contents []gallery.GalleryContent) {
	t := newTable(table.Row{"Page", "Image"})
	for _, c := range contents {
		t.AppendRow(table.Row{c.Tag, c.URL})
	}
	t.Render()
}

func renderArchive(archive gallery.GalleryArchive, funds *gallery.Funds) {
	t := newTable(table.Row{"Resolution", "Size", "Cost"})
	for _, item := range archive.HathArchives {
		if !item.IsValid() {
			t.AppendRow(table.Row{item.Resolution, "unavailable", ""})
			continue
		}
		t.AppendRow(table.Row{item.Resolution, item.FileSize, item.GPPrice})
	}
	if funds != nil {
		t.AppendFooter(table.Row{"Funds", "GP " + funds.GP, "Credits " + funds.Credits})
	}
	t.Render()
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
