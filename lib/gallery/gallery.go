package gallery

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Category string

const (
	CATEGORY_DOUJINSHI  Category = "Doujinshi"
	CATEGORY_MANGA      Category = "Manga"
	CATEGORY_ARTIST_CG  Category = "Artist CG"
	CATEGORY_GAME_CG    Category = "Game CG"
	CATEGORY_WESTERN    Category = "Western"
	CATEGORY_NON_H      Category = "Non-H"
	CATEGORY_IMAGE_SET  Category = "Image Set"
	CATEGORY_COSPLAY    Category = "Cosplay"
	CATEGORY_ASIAN_PORN Category = "Asian Porn"
	CATEGORY_MISC       Category = "Misc"
	CATEGORY_PRIVATE    Category = "Private"
)

var categories = []Category{
	CATEGORY_DOUJINSHI,
	CATEGORY_MANGA,
	CATEGORY_ARTIST_CG,
	CATEGORY_GAME_CG,
	CATEGORY_WESTERN,
	CATEGORY_NON_H,
	CATEGORY_IMAGE_SET,
	CATEGORY_COSPLAY,
	CATEGORY_ASIAN_PORN,
	CATEGORY_MISC,
	CATEGORY_PRIVATE,
}

// ParseCategory matches the category label shown on listing and detail
// pages, case-insensitively.
func ParseCategory(text string) (Category, bool) {
	text = strings.TrimSpace(text)
	for _, c := range categories {
		if strings.EqualFold(string(c), text) {
			return c, true
		}
	}
	// listing pages write "Artist CG" as "artistcg" in class names
	compact := strings.ReplaceAll(strings.ToLower(text), " ", "")
	for _, c := range categories {
		if strings.ReplaceAll(strings.ToLower(string(c)), " ", "") == compact {
			return c, true
		}
	}
	return "", false
}

// Gallery is a single entry of a listing page.
type Gallery struct {
	GID           string
	Token         string
	Title         string
	Category      Category
	Rating        float64
	CoverURL      string
	Tags          []string
	Uploader      string
	PublishedTime time.Time
	PageCount     int
	DetailURL     string
}

// HistoryItem is a gallery as last opened.
type HistoryItem struct {
	Gallery      Gallery
	LastOpenTime time.Time
	// ReadingProgress is the last page read, 0 when none was.
	ReadingProgress int
}

func (g Gallery) ID() string {
	return g.GID
}

// IdentityFromURL extracts gid and token from a detail url of the form
// https://<host>/g/<gid>/<token>/.
func IdentityFromURL(detailURL string) (gid, token string, err error) {
	parsed, err := url.Parse(detailURL)
	if err != nil {
		return "", "", err
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 3 || segments[0] != "g" {
		return "", "", fmt.Errorf("not a gallery url: %s", detailURL)
	}
	if segments[1] == "" || segments[2] == "" {
		return "", "", fmt.Errorf("not a gallery url: %s", detailURL)
	}
	return segments[1], segments[2], nil
}

type GalleryTag struct {
	Namespace string
	Contents  []string
}

type GalleryDetail struct {
	GID            string
	Title          string
	JPNTitle       string
	Category       Category
	Language       string
	Uploader       string
	PublishedTime  time.Time
	CoverURL       string
	ArchiveURL     string
	TorrentURL     string
	Rating         float64
	RatingCount    int
	FavoritedCount int
	PageCount      int
	SizeText       string
	IsFavorited    bool
	Tags           []GalleryTag
}

// APIKey is the per-session key embedded in detail pages, required together
// with the member id by the json api.
type APIKey string

// GalleryReverse builds a listing entry out of a detail page, used when only
// a detail url is known.
func GalleryReverse(detail GalleryDetail, gid, token, detailURL string) Gallery {
	var tags []string
	for _, t := range detail.Tags {
		for _, c := range t.Contents {
			tags = append(tags, t.Namespace+":"+c)
		}
	}
	return Gallery{
		GID:           gid,
		Token:         token,
		Title:         detail.Title,
		Category:      detail.Category,
		Rating:        detail.Rating,
		CoverURL:      detail.CoverURL,
		Tags:          tags,
		Uploader:      detail.Uploader,
		PublishedTime: detail.PublishedTime,
		PageCount:     detail.PageCount,
		DetailURL:     detailURL,
	}
}

// PageNumber is the zero-based position reported by a listing page.
type PageNumber struct {
	Current int
	Maximum int
}

type GalleryTorrent struct {
	PostedTime string
	FileSize   string
	Seeds      int
	Peers      int
	Downloads  int
	Uploader   string
	FileName   string
	Hash       string
	TorrentURL string
}

type GalleryComment struct {
	CommentID  string
	Author     string
	Score      string
	Content    string
	PostedTime string
	Votable    bool
	Editable   bool
	VotedUp    bool
	VotedDown  bool
}

type GalleryContent struct {
	// Tag is the 1-based page index inside the gallery.
	Tag int
	URL string
}

type GalleryAlterData struct {
	Index     int
	SpriteURL string
	OffsetX   int
}

// AssociatedKeyword is a refinement token used for "search by tag" chains.
type AssociatedKeyword struct {
	Category string
	Content  string
	Title    string
}

func (k AssociatedKeyword) Query() string {
	switch {
	case k.Category != "" && k.Content != "":
		content := k.Content
		if strings.Contains(content, " ") {
			content = `"` + content + `$"`
		} else {
			content += "$"
		}
		return k.Category + ":" + content
	case k.Content != "":
		return k.Content
	default:
		return k.Title
	}
}

type Funds struct {
	GP      string
	Credits string
}
