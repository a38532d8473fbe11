package parser

import (
	"path"
	"strings"

	"ehclient/lib/gallery"
	"ehclient/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

func Torrents(doc *goquery.Document) ([]gallery.GalleryTorrent, error) {
	container := doc.Find("#torrentinfo")
	if container.Length() == 0 {
		return nil, parseErr("torrent list not found")
	}

	torrents := []gallery.GalleryTorrent{}
	var formErr error
	container.Find("form").EachWithBreak(func(i int, form *goquery.Selection) bool {
		torrent := gallery.GalleryTorrent{}
		form.Find("td").Each(func(_ int, td *goquery.Selection) {
			label := strings.TrimSuffix(text(td.Find("span").First()), ":")
			value := strings.TrimSpace(strings.TrimPrefix(text(td), text(td.Find("span").First())))
			switch label {
			case "Posted":
				torrent.PostedTime = value
			case "Size":
				torrent.FileSize = value
			case "Seeds":
				torrent.Seeds, _ = htmlutil.FirstInt(value)
			case "Peers":
				torrent.Peers, _ = htmlutil.FirstInt(value)
			case "Downloads":
				torrent.Downloads, _ = htmlutil.FirstInt(value)
			case "Uploader":
				torrent.Uploader = value
			}
		})

		link := form.Find("a").First()
		torrent.TorrentURL = link.AttrOr("href", "")
		torrent.FileName = text(link)
		if torrent.TorrentURL == "" || torrent.FileName == "" {
			formErr = parseErr("torrent %d has no file link", i)
			return false
		}
		torrent.Hash = strings.TrimSuffix(path.Base(torrent.TorrentURL), ".torrent")
		torrents = append(torrents, torrent)
		return true
	})
	if formErr != nil {
		return nil, formErr
	}
	return torrents, nil
}

// Comments parses the comment section of a detail page, a gallery without
// comments gives an empty list.
func Comments(doc *goquery.Document) ([]gallery.GalleryComment, error) {
	if doc.Find("#cdiv").Length() == 0 {
		return nil, parseErr("comment section not found")
	}

	comments := []gallery.GalleryComment{}
	var commentErr error
	doc.Find("#cdiv div.c1").EachWithBreak(func(i int, c *goquery.Selection) bool {
		body := c.Find("div.c6")
		id := strings.TrimPrefix(body.AttrOr("id", ""), "comment_")
		if id == "" {
			commentErr = parseErr("comment %d has no id", i)
			return false
		}

		header := text(c.Find("div.c3"))
		posted := strings.TrimPrefix(header, "Posted on ")
		if idx := strings.Index(posted, " by:"); idx >= 0 {
			posted = posted[:idx]
		}

		voteUp := c.Find("#comment_vote_up_" + id)
		voteDown := c.Find("#comment_vote_down_" + id)
		editable := false
		c.Find("div.c4 a").Each(func(_ int, a *goquery.Selection) {
			if text(a) == "Edit" {
				editable = true
			}
		})

		comments = append(comments, gallery.GalleryComment{
			CommentID:  id,
			Author:     text(c.Find("div.c3 a").First()),
			Score:      text(c.Find("div.c5 span").First()),
			Content:    text(body),
			PostedTime: strings.TrimSpace(posted),
			Votable:    voteUp.Length() > 0,
			Editable:   editable,
			VotedUp:    voteUp.AttrOr("style", "") != "",
			VotedDown:  voteDown.AttrOr("style", "") != "",
		})
		return true
	})
	if commentErr != nil {
		return nil, commentErr
	}
	return comments, nil
}
