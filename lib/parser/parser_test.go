package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ehclient/lib/gallery"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fixture(t testing.TB, name string) *goquery.Document {
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := Document(body)
	require.NoError(t, err)
	return doc
}

func inline(t testing.TB, body string) *goquery.Document {
	doc, err := Document([]byte(body))
	require.NoError(t, err)
	return doc
}

func TestListItems(t *testing.T) {
	pageNumber, items, err := ListItems(fixture(t, "list.html"))
	require.NoError(t, err)
	require.Equal(t, gallery.PageNumber{Current: 1, Maximum: 4}, pageNumber)

	expected := []gallery.Gallery{
		{
			GID:           "1001",
			Token:         "aaa111",
			Title:         "First Gallery",
			Category:      gallery.CATEGORY_DOUJINSHI,
			Rating:        3.5,
			CoverURL:      "https://ehgt.org/t/aa/bb/first_l.jpg",
			Tags:          []string{"language:english", "female:glasses"},
			Uploader:      "alice",
			PublishedTime: time.Date(2021, 5, 14, 12, 34, 0, 0, time.UTC),
			PageCount:     24,
			DetailURL:     "https://e-hentai.org/g/1001/aaa111/",
		},
		{
			GID:           "1000",
			Token:         "bbb222",
			Title:         "Second Gallery",
			Category:      gallery.CATEGORY_ARTIST_CG,
			Rating:        5,
			CoverURL:      "https://ehgt.org/t/cc/dd/second_l.jpg",
			Tags:          []string{},
			Uploader:      "bob",
			PublishedTime: time.Date(2021, 5, 13, 8, 0, 0, 0, time.UTC),
			PageCount:     1,
			DetailURL:     "https://e-hentai.org/g/1000/bbb222/",
		},
	}
	diff := cmp.Diff(expected, items)
	require.Empty(t, diff)
}

func TestListItemsMalformed(t *testing.T) {
	_, items, err := ListItems(fixture(t, "list_malformed.html"))
	require.True(t, errors.Is(err, ErrParse))
	require.Nil(t, items)

	_, _, err = ListItems(inline(t, "<html><body><p>rate limited</p></body></html>"))
	require.ErrorIs(t, err, ErrParse)
}

func TestListItemsEmpty(t *testing.T) {
	pageNumber, items, err := ListItems(fixture(t, "list_empty.html"))
	require.NoError(t, err)
	require.Equal(t, gallery.PageNumber{}, pageNumber)
	require.Len(t, items, 0)
}

func TestGalleryDetail(t *testing.T) {
	page, err := GalleryDetail(fixture(t, "detail.html"))
	require.NoError(t, err)

	require.Equal(t, gallery.APIKey("0123456789abcdef"), page.APIKey)
	require.Equal(t, 424242, page.APIUID)

	expected := gallery.GalleryDetail{
		GID:            "1001",
		Title:          "First Gallery",
		JPNTitle:       "最初のギャラリー",
		Category:       gallery.CATEGORY_DOUJINSHI,
		Language:       "English",
		Uploader:       "alice",
		PublishedTime:  time.Date(2021, 5, 14, 12, 34, 0, 0, time.UTC),
		CoverURL:       "https://ehgt.org/aa/bb/cover-250.jpg",
		ArchiveURL:     "https://e-hentai.org/archiver.php?gid=1001&token=aaa111&or=445566--abc",
		TorrentURL:     "https://e-hentai.org/gallerytorrents.php?gid=1001&t=aaa111",
		Rating:         4.52,
		RatingCount:    321,
		FavoritedCount: 1234,
		PageCount:      24,
		SizeText:       "48.21 MiB",
		IsFavorited:    true,
		Tags: []gallery.GalleryTag{
			{Namespace: "language", Contents: []string{"english", "translated"}},
			{Namespace: "female", Contents: []string{"glasses"}},
		},
	}
	diff := cmp.Diff(expected, page.Detail)
	require.Empty(t, diff)
}

func TestGalleryDetailMissingCredentials(t *testing.T) {
	_, err := GalleryDetail(inline(t, `<html><body><h1 id="gn">t</h1><div id="gdc"><div class="cs">Manga</div></div></body></html>`))
	require.ErrorIs(t, err, ErrParse)
}

func TestArchiveURL(t *testing.T) {
	require.Equal(t,
		"https://e-hentai.org/archiver.php?gid=1001&token=aaa111&or=445566--abc",
		ArchiveURL(fixture(t, "detail.html")),
	)
	require.Equal(t, "", ArchiveURL(fixture(t, "detail_noarchive.html")))
}

func TestGalleryArchive(t *testing.T) {
	archive, funds, err := GalleryArchive(fixture(t, "archive.html"))
	require.NoError(t, err)
	require.Len(t, archive.HathArchives, 6)

	require.Equal(t, gallery.HathArchive{
		Resolution: gallery.RESOLUTION_780X,
		FileSize:   "12.04 MiB",
		GPPrice:    "Free",
	}, archive.HathArchives[0])
	require.False(t, archive.HathArchives[3].IsValid())
	require.Equal(t, gallery.RESOLUTION_ORIGINAL, archive.HathArchives[5].Resolution)
	require.Equal(t, "1,234 GP", archive.HathArchives[5].GPPrice)

	require.NotNil(t, funds)
	require.Equal(t, gallery.Funds{GP: "98765", Credits: "4321"}, *funds)
}

func TestFunds(t *testing.T) {
	funds := Funds(fixture(t, "exchange.html"))
	require.NotNil(t, funds)
	require.Equal(t, gallery.Funds{GP: "150000", Credits: "2000"}, *funds)

	require.Nil(t, Funds(fixture(t, "detail.html")))
}

func TestDownloadCommandResponse(t *testing.T) {
	testCases := []struct {
		message  string
		expected gallery.DownloadCommandResponse
	}{
		{
			message:  "A 780x resolution download has been queued for your client.",
			expected: gallery.DOWNLOAD_COMMAND_SUCCESS,
		},
		{
			message:  "This gallery has already been queued for download.",
			expected: gallery.DOWNLOAD_COMMAND_ALREADY_REQUESTED,
		},
		{
			message:  "You have insufficient GP to download this archive.",
			expected: gallery.DOWNLOAD_COMMAND_INSUFFICIENT_FUNDS,
		},
		{
			message:  "Something else happened.",
			expected: gallery.DOWNLOAD_COMMAND_UNKNOWN,
		},
	}

	for _, test := range testCases {
		res, err := DownloadCommandResponse(inline(t, `<div id="db"><p>`+test.message+`</p></div>`))
		require.NoError(t, err)
		require.Equal(t, test.expected, res, test.message)
	}

	_, err := DownloadCommandResponse(inline(t, "<html></html>"))
	require.ErrorIs(t, err, ErrParse)
}

func TestTorrents(t *testing.T) {
	torrents, err := Torrents(fixture(t, "torrents.html"))
	require.NoError(t, err)

	expected := []gallery.GalleryTorrent{{
		PostedTime: "2021-05-15 10:00",
		FileSize:   "48.21 MiB",
		Seeds:      3,
		Peers:      1,
		Downloads:  1024,
		Uploader:   "alice",
		FileName:   "[Group] First Gallery.zip",
		Hash:       "0123456789abcdef0123456789abcdef01234567",
		TorrentURL: "https://ehtracker.org/get/1001/0123456789abcdef0123456789abcdef01234567.torrent",
	}}
	diff := cmp.Diff(expected, torrents)
	require.Empty(t, diff)
}

func TestComments(t *testing.T) {
	comments, err := Comments(fixture(t, "detail.html"))
	require.NoError(t, err)

	expected := []gallery.GalleryComment{
		{
			CommentID:  "0",
			Author:     "alice",
			Content:    "Thanks for reading\nenjoy",
			PostedTime: "14 May 2021, 12:40",
		},
		{
			CommentID:  "555",
			Author:     "carol",
			Score:      "+12",
			Content:    "Great work",
			PostedTime: "15 May 2021, 09:00",
			Votable:    true,
			VotedUp:    true,
		},
		{
			CommentID:  "777",
			Author:     "me",
			Score:      "+1",
			Content:    "my own comment",
			PostedTime: "16 May 2021, 10:00",
			Editable:   true,
		},
	}
	diff := cmp.Diff(expected, comments)
	require.Empty(t, diff)
}

func TestAlterImages(t *testing.T) {
	doc := fixture(t, "detail.html")

	link, err := AlterImagesURL(doc)
	require.NoError(t, err)
	require.Equal(t, "https://e-hentai.org/g/1001/aaa111/?inline_set=ts_m", link)

	images, err := AlterImages(doc)
	require.NoError(t, err)
	require.Equal(t, []gallery.GalleryAlterData{
		{Index: 1, SpriteURL: "https://ehgt.org/m/001/1001-00.jpg", OffsetX: 0},
		{Index: 2, SpriteURL: "https://ehgt.org/m/001/1001-00.jpg", OffsetX: -100},
		{Index: 3, SpriteURL: "https://ehgt.org/m/001/1001-00.jpg", OffsetX: -200},
	}, images)
}

func TestImagePreContents(t *testing.T) {
	doc := fixture(t, "detail.html")

	pre, err := ImagePreContents(doc, 24)
	require.NoError(t, err)
	require.Equal(t, []PreContent{
		{Index: 1, URL: "https://e-hentai.org/s/aaaa000001/1001-1"},
		{Index: 2, URL: "https://e-hentai.org/s/aaaa000002/1001-2"},
		{Index: 3, URL: "https://e-hentai.org/s/aaaa000003/1001-3"},
	}, pre)

	bounded, err := ImagePreContents(doc, 2)
	require.NoError(t, err)
	require.Len(t, bounded, 2)

	_, err = ImagePreContents(fixture(t, "list_empty.html"), 24)
	require.ErrorIs(t, err, ErrParse)
}

func TestGalleryContent(t *testing.T) {
	content, err := GalleryContent(fixture(t, "image.html"), 3)
	require.NoError(t, err)
	require.Equal(t, gallery.GalleryContent{
		Tag: 3,
		URL: "https://abc.hath.network/h/0000/keystamp/01.jpg",
	}, content)

	_, err = GalleryContent(fixture(t, "list_empty.html"), 3)
	require.ErrorIs(t, err, ErrParse)
}

func TestAccountPages(t *testing.T) {
	user, err := UserInfo(fixture(t, "profile.html"))
	require.NoError(t, err)
	require.Equal(t, gallery.User{
		DisplayName: "Alice Smith",
		AvatarURL:   "https://forums.e-hentai.org/uploads/av-424242.jpg",
	}, user)

	uconfig := fixture(t, "uconfig.html")
	names, err := FavoriteNames(uconfig)
	require.NoError(t, err)
	require.Len(t, names, 10)
	require.Equal(t, "Manga", names[1])
	require.Equal(t, "Read Later", names[9])

	index, found, err := ProfileIndex(uconfig)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, index)
	require.Equal(t, 2, ProfileCount(uconfig))

	_, found, err = ProfileIndex(inline(t, `<select name="profile_set"><option value="1">Default Profile</option></select>`))
	require.NoError(t, err)
	require.False(t, found)

	_, _, err = ProfileIndex(fixture(t, "profile.html"))
	require.ErrorIs(t, err, ErrParse)
	_, err = FavoriteNames(fixture(t, "profile.html"))
	require.ErrorIs(t, err, ErrParse)
}

func TestGreeting(t *testing.T) {
	greeting, err := Greeting(fixture(t, "news.html"))
	require.NoError(t, err)
	require.Equal(t, gallery.Greeting{
		GainedEXP:     30,
		GainedCredits: 10393,
		GainedGP:      10000,
		GainedHath:    11,
	}, greeting)

	testCases := []struct {
		name string
		body string
	}{
		{name: "no event pane", body: `<div id="newsinner">Site News</div>`},
		{name: "other event", body: `<div id="eventpane"><p>A monster appears!</p></div>`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Greeting(inline(t, tc.body))
			require.ErrorIs(t, err, ErrParse)
		})
	}
}
