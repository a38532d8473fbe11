package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/cursor"
	"ehclient/lib/gallery"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type testSite struct {
	t      *testing.T
	server *httptest.Server
	mux    *http.ServeMux

	lock     sync.Mutex
	requests []*http.Request
	bodies   map[string]string
}

func newTestSite(t *testing.T) *testSite {
	site := &testSite{
		t:      t,
		mux:    http.NewServeMux(),
		bodies: map[string]string{},
	}
	site.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))
		body := string(raw)
		site.lock.Lock()
		site.requests = append(site.requests, r)
		site.bodies[r.URL.Path] = body
		site.lock.Unlock()
		site.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(site.server.Close)
	return site
}

// fixture serves a parser testdata page with its absolute links pointed at
// the test server.
func (s *testSite) fixture(path, name string) {
	raw, err := os.ReadFile(filepath.Join("..", "parser", "testdata", name))
	require.NoError(s.t, err)
	page := strings.ReplaceAll(string(raw), "https://e-hentai.org", s.server.URL)
	s.html(path, page)
}

func (s *testSite) html(path, page string) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	})
}

func (s *testSite) lastRequest(path string) *http.Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].URL.Path == path {
			return s.requests[i]
		}
	}
	return nil
}

func (s *testSite) body(path string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.bodies[path]
}

func (s *testSite) client() *Client {
	config := DefaultConfig()
	config.EHentaiURL = s.server.URL
	config.ExHentaiURL = s.server.URL
	config.ForumsURL = s.server.URL
	config.APIURL = s.server.URL + "/api.php"
	config.ExAPIURL = ""
	config.TranslationURL = s.server.URL + "/db.%s.json"
	config.RequestsPerSecond = 0

	client, err := NewClient(ClientOptions{Config: config})
	require.NoError(s.t, err)
	return client
}

func (s *testSite) detailURL() string {
	return s.server.URL + "/g/1001/aaa111/"
}

func requireKind(t testing.TB, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	var classified *apperr.Error
	require.ErrorAs(t, err, &classified)
	require.Equal(t, kind, classified.Kind)
}

func TestFetchList(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/", "list.html")
	client := site.client()

	page, err := client.FetchList(context.Background(), Frontpage())
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, cursor.Cursor{LastID: "1000", Page: 1, Maximum: 4}, page.Cursor)

	more, err := client.FetchMoreList(context.Background(), Frontpage(), page.Cursor, len(page.Items))
	require.NoError(t, err)
	require.Equal(t, 2, more.Cursor.Page)
	require.Equal(t, "1000", more.Cursor.LastID)

	query := site.lastRequest("/").URL.Query()
	require.Equal(t, "2", query.Get("page"))
	require.Equal(t, "1000", query.Get("from"))
}

func TestSourceEndpoints(t *testing.T) {
	testCases := []struct {
		name     string
		source   Source
		path     string
		expected url.Values
	}{
		{
			name:     "popular",
			source:   Popular(),
			path:     "https://e-hentai.org/popular",
			expected: url.Values{},
		},
		{
			name:     "all favorites",
			source:   Favorites(-1),
			path:     "https://e-hentai.org/favorites.php",
			expected: url.Values{},
		},
		{
			name:     "favorites category",
			source:   Favorites(3),
			path:     "https://e-hentai.org/favorites.php",
			expected: url.Values{"favcat": {"3"}},
		},
		{
			name: "search",
			source: Search("glasses", gallery.Filter{
				ExcludedCategories: []gallery.Category{gallery.CATEGORY_MISC},
			}),
			path:     "https://e-hentai.org/",
			expected: url.Values{"f_search": {"glasses"}, "f_cats": {"1"}},
		},
		{
			name: "associated",
			source: Associated(gallery.AssociatedKeyword{
				Category: "female",
				Content:  "glasses",
			}),
			path:     "https://e-hentai.org/",
			expected: url.Values{"f_search": {"female:glasses$"}},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			path, query := test.source.endpoint("https://e-hentai.org")
			require.Equal(t, test.path, path)
			require.Empty(t, cmp.Diff(test.expected, query))
		})
	}
}

func TestFetchMoreListValidation(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/", "list.html")
	client := site.client()

	testCases := []struct {
		name    string
		source  Source
		cursor  cursor.Cursor
		listLen int
		kind    apperr.Kind
	}{
		{
			name:    "empty cursor",
			source:  Frontpage(),
			cursor:  cursor.Cursor{},
			listLen: 25,
			kind:    apperr.INVALID_CURSOR,
		},
		{
			name:    "stale cursor",
			source:  Frontpage(),
			cursor:  cursor.Cursor{LastID: "1000", Page: 0, Maximum: 3},
			listLen: 0,
			kind:    apperr.INVALID_CURSOR,
		},
		{
			name:    "last page",
			source:  Watched(),
			cursor:  cursor.Cursor{LastID: "1000", Page: 3, Maximum: 3},
			listLen: 25,
			kind:    apperr.NO_MORE_PAGES,
		},
		{
			name:    "popular",
			source:  Popular(),
			cursor:  cursor.Cursor{LastID: "1000", Page: 0, Maximum: 3},
			listLen: 25,
			kind:    apperr.NO_MORE_PAGES,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := client.FetchMoreList(context.Background(), test.source, test.cursor, test.listLen)
			requireKind(t, err, test.kind)
		})
	}

	site.lock.Lock()
	defer site.lock.Unlock()
	require.Empty(t, site.requests)
}

func TestFetchListMalformed(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/", "list_malformed.html")
	client := site.client()

	_, err := client.FetchList(context.Background(), Search("x", gallery.Filter{}))
	requireKind(t, err, apperr.PARSE_FAILED)
}

func TestFetchListStatus(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/watched", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := site.client()

	_, err := client.FetchList(context.Background(), Watched())
	requireKind(t, err, apperr.UNKNOWN)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestFetchListNetworkFailure(t *testing.T) {
	site := newTestSite(t)
	client := site.client()
	site.server.Close()

	_, err := client.FetchList(context.Background(), Frontpage())
	requireKind(t, err, apperr.NETWORK_FAILED)
}

func TestGalleryReverse(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/g/1001/aaa111/", "detail.html")
	client := site.client()

	item, err := client.GalleryReverse(context.Background(), site.detailURL())
	require.NoError(t, err)
	require.Equal(t, "1001", item.GID)
	require.Equal(t, "aaa111", item.Token)
	require.Equal(t, "First Gallery", item.Title)
	require.Equal(t, site.detailURL(), item.DetailURL)

	_, err = client.GalleryReverse(context.Background(), site.server.URL+"/popular")
	requireKind(t, err, apperr.PARSE_FAILED)
}

func TestGalleryDetail(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/g/1001/aaa111/", "detail.html")
	client := site.client()

	page, err := client.GalleryDetail(context.Background(), site.detailURL())
	require.NoError(t, err)
	require.Equal(t, gallery.APIKey("0123456789abcdef"), page.APIKey)
	require.Equal(t, 424242, page.APIUID)
	require.Equal(t, 24, page.Detail.PageCount)
	require.Equal(t, "1", site.lastRequest("/g/1001/aaa111/").URL.Query().Get("hc"))
}

func TestArchiveFunds(t *testing.T) {
	t.Run("chained", func(t *testing.T) {
		site := newTestSite(t)
		site.fixture("/g/1001/aaa111/", "detail.html")
		site.fixture("/archiver.php", "archive.html")
		client := site.client()

		funds, err := client.ArchiveFunds(context.Background(), site.detailURL())
		require.NoError(t, err)
		require.Equal(t, &gallery.Funds{GP: "98765", Credits: "4321"}, funds)

		query := site.lastRequest("/archiver.php").URL.Query()
		require.Equal(t, "1001", query.Get("gid"))
		require.Equal(t, "445566--abc", query.Get("or"))
	})

	t.Run("no archive", func(t *testing.T) {
		site := newTestSite(t)
		site.fixture("/g/1001/aaa111/", "detail_noarchive.html")
		client := site.client()

		funds, err := client.ArchiveFunds(context.Background(), site.detailURL())
		require.NoError(t, err)
		require.Nil(t, funds)
		require.Nil(t, site.lastRequest("/archiver.php"))
	})

	t.Run("no balances", func(t *testing.T) {
		site := newTestSite(t)
		site.fixture("/g/1001/aaa111/", "detail.html")
		site.html("/archiver.php", "<html><body><div id=\"db\"></div></body></html>")
		client := site.client()

		_, err := client.ArchiveFunds(context.Background(), site.detailURL())
		requireKind(t, err, apperr.UNKNOWN)
	})
}

func TestGalleryArchive(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/archiver.php", "archive.html")
	client := site.client()

	archive, funds, err := client.GalleryArchive(context.Background(), site.server.URL+"/archiver.php?gid=1001")
	require.NoError(t, err)
	require.Len(t, archive.HathArchives, len(gallery.Resolutions))
	require.Equal(t, "98765", funds.GP)
}

func TestTorrentsAndComments(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/gallerytorrents.php", "torrents.html")
	site.fixture("/g/1001/aaa111/", "detail.html")
	client := site.client()

	torrents, err := client.Torrents(context.Background(), "1001", "aaa111")
	require.NoError(t, err)
	require.Len(t, torrents, 1)
	query := site.lastRequest("/gallerytorrents.php").URL.Query()
	require.Equal(t, "1001", query.Get("gid"))
	require.Equal(t, "aaa111", query.Get("t"))

	comments, err := client.Comments(context.Background(), site.detailURL())
	require.NoError(t, err)
	require.Len(t, comments, 3)
}

func serveImagePages(site *testSite, broken int) {
	site.mux.HandleFunc("/s/", func(w http.ResponseWriter, r *http.Request) {
		var page int
		fmt.Sscanf(r.URL.Path[strings.LastIndex(r.URL.Path, "-")+1:], "%d", &page)
		if page == broken {
			w.Write([]byte("<html><body><p>This page is temporarily unavailable</p></body></html>"))
			return
		}
		fmt.Fprintf(w, `<html><body><img id="img" src="%s/img/%02d.jpg"></body></html>`, site.server.URL, page)
	})
}

func TestContents(t *testing.T) {
	t.Run("ordered batch", func(t *testing.T) {
		site := newTestSite(t)
		site.fixture("/g/1001/aaa111/", "detail.html")
		serveImagePages(site, -1)
		client := site.client()

		contents, err := client.Contents(context.Background(), site.detailURL(), 0, 3)
		require.NoError(t, err)
		expected := []gallery.GalleryContent{
			{Tag: 1, URL: site.server.URL + "/img/01.jpg"},
			{Tag: 2, URL: site.server.URL + "/img/02.jpg"},
			{Tag: 3, URL: site.server.URL + "/img/03.jpg"},
		}
		require.Empty(t, cmp.Diff(expected, contents))
		require.Equal(t, "0", site.lastRequest("/g/1001/aaa111/").URL.Query().Get("p"))
	})

	t.Run("page count bounds the batch", func(t *testing.T) {
		site := newTestSite(t)
		site.fixture("/g/1001/aaa111/", "detail.html")
		serveImagePages(site, -1)
		client := site.client()

		contents, err := client.Contents(context.Background(), site.detailURL(), 0, 2)
		require.NoError(t, err)
		require.Len(t, contents, 2)
	})

	t.Run("one failure fails the batch", func(t *testing.T) {
		site := newTestSite(t)
		site.fixture("/g/1001/aaa111/", "detail.html")
		serveImagePages(site, 2)
		client := site.client()

		contents, err := client.Contents(context.Background(), site.detailURL(), 0, 3)
		requireKind(t, err, apperr.PARSE_FAILED)
		require.Nil(t, contents)
	})
}

func TestAlterImages(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/g/1001/aaa111/", "detail.html")
	client := site.client()

	images, err := client.AlterImages(context.Background(), site.detailURL())
	require.NoError(t, err)
	require.Len(t, images, 3)
	require.Equal(t, -100, images[1].OffsetX)
	require.Equal(t, "ts_m", site.lastRequest("/g/1001/aaa111/").URL.Query().Get("inline_set"))
}

func TestAccount(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/index.php", "profile.html")
	site.fixture("/uconfig.php", "uconfig.html")
	site.fixture("/exchange.php", "exchange.html")
	client := site.client()
	ctx := context.Background()

	user, err := client.UserInfo(ctx, "424242")
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", user.DisplayName)
	require.Equal(t, "424242", site.lastRequest("/index.php").URL.Query().Get("showuser"))

	names, err := client.FavoriteNames(ctx)
	require.NoError(t, err)
	require.Equal(t, "Read Later", names[9])

	index, found, err := client.ProfileIndex(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, index)

	funds, err := client.Funds(ctx)
	require.NoError(t, err)
	require.Equal(t, gallery.Funds{GP: "150000", Credits: "2000"}, funds)
	require.Equal(t, "gp", site.lastRequest("/exchange.php").URL.Query().Get("t"))
}

func TestGreeting(t *testing.T) {
	site := newTestSite(t)
	site.fixture("/news.php", "news.html")
	client := site.client()

	before := time.Now()
	greeting, err := client.Greeting(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10393, greeting.GainedCredits)
	require.Equal(t, 11, greeting.GainedHath)
	require.False(t, greeting.UpdateTime.Before(before))

	quiet := newTestSite(t)
	quiet.html("/news.php", `<html><body><div id="newsinner">Site News</div></body></html>`)
	_, err = quiet.client().Greeting(context.Background())
	requireKind(t, err, apperr.PARSE_FAILED)
}

func TestFundsLoggedOut(t *testing.T) {
	site := newTestSite(t)
	site.html("/exchange.php", "<html><body><p>Please log in</p></body></html>")
	client := site.client()

	_, err := client.Funds(context.Background())
	requireKind(t, err, apperr.NOT_LOGGED_IN)
}

func TestCreateProfileAndIgneous(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/uconfig.php", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "igneous", Value: "abcdef", Path: "/"})
	})
	client := site.client()
	ctx := context.Background()

	ack, err := client.CreateProfile(ctx, "EhPanda")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, ack.StatusCode)
	form, err := url.ParseQuery(site.body("/uconfig.php"))
	require.NoError(t, err)
	require.Equal(t, "create", form.Get("profile_action"))
	require.Equal(t, "EhPanda", form.Get("profile_name"))

	_, err = client.Igneous(ctx)
	require.NoError(t, err)
	host, err := url.Parse(site.server.URL)
	require.NoError(t, err)
	found := false
	for _, cookie := range client.Http.GetClient().Jar.Cookies(host) {
		if cookie.Name == "igneous" {
			found = true
		}
	}
	require.True(t, found)
}

func TestTagTranslator(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/db.zh-Hans.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"head": {"committer": {"when": "2026-03-01T10:00:00Z"}},
			"data": [
				{"namespace": "female", "data": {
					"glasses": {"name": "眼镜"},
					"x": {"name": "![icon](https://example.org/x.png)叉"}
				}}
			]
		}`))
	})
	client := site.client()
	ctx := context.Background()

	translator, err := client.TagTranslator(ctx, "zh-Hans", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "zh-Hans", translator.Language)
	require.Equal(t, "眼镜", translator.Translate("female:glasses"))
	require.Equal(t, "叉", translator.Translations["x"])

	translator, err = client.TagTranslator(ctx, "zh-Hans", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Nil(t, translator)
}

func TestTagTranslatorUnexpectedShape(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/db.zh-Hans.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head": "not an object"}`))
	})
	client := site.client()

	translator, err := client.TagTranslator(context.Background(), "zh-Hans", time.Time{})
	requireKind(t, err, apperr.UNKNOWN)
	require.Nil(t, translator)
}

func TestFavoriteMutations(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/gallerypopups.php", func(w http.ResponseWriter, r *http.Request) {})
	site.mux.HandleFunc("/favorites.php", func(w http.ResponseWriter, r *http.Request) {})
	client := site.client()
	ctx := context.Background()

	_, err := client.AddFavorite(ctx, "1001", "aaa111", 3)
	require.NoError(t, err)
	req := site.lastRequest("/gallerypopups.php")
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "addfav", req.URL.Query().Get("act"))
	form, err := url.ParseQuery(site.body("/gallerypopups.php"))
	require.NoError(t, err)
	require.Equal(t, "3", form.Get("favcat"))
	require.Equal(t, "Add to Favorites", form.Get("apply"))

	_, err = client.DeleteFavorite(ctx, "1001")
	require.NoError(t, err)
	form, err = url.ParseQuery(site.body("/favorites.php"))
	require.NoError(t, err)
	require.Equal(t, "delete", form.Get("ddact"))
	require.Equal(t, "1001", form.Get("modifygids[]"))
}

func TestRate(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rating_avg":4.5}`))
	})
	client := site.client()

	ack, err := client.Rate(context.Background(), 424242, "0123456789abcdef", 1, "abc", 5)
	require.NoError(t, err)
	require.Equal(t, Ack{StatusCode: http.StatusOK}, ack)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(site.body("/api.php")), &body))
	expected := map[string]any{
		"method": "rategallery",
		"apiuid": float64(424242),
		"apikey": "0123456789abcdef",
		"gid":    float64(1),
		"token":  "abc",
		"rating": float64(5),
	}
	require.Empty(t, cmp.Diff(expected, body))
}

func TestCommentMutations(t *testing.T) {
	site := newTestSite(t)
	site.mux.HandleFunc("/g/1001/aaa111/", func(w http.ResponseWriter, r *http.Request) {})
	site.mux.HandleFunc("/api.php", func(w http.ResponseWriter, r *http.Request) {})
	client := site.client()
	ctx := context.Background()

	_, err := client.Comment(ctx, site.detailURL(), "first line\nsecond line")
	require.NoError(t, err)
	form, err := url.ParseQuery(site.body("/g/1001/aaa111/"))
	require.NoError(t, err)
	require.Equal(t, "first line\nsecond line", form.Get("commenttext_new"))

	_, err = client.EditComment(ctx, site.detailURL(), "777", "edited")
	require.NoError(t, err)
	form, err = url.ParseQuery(site.body("/g/1001/aaa111/"))
	require.NoError(t, err)
	require.Equal(t, "777", form.Get("edit_comment"))
	require.Equal(t, "edited", form.Get("commenttext_edit"))

	_, err = client.VoteComment(ctx, 424242, "0123456789abcdef", 1001, "aaa111", 555, -1)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(site.body("/api.php")), &body))
	require.Equal(t, "votecomment", body["method"])
	require.Equal(t, float64(555), body["comment_id"])
	require.Equal(t, float64(-1), body["comment_vote"])
}

func TestSendDownloadCommand(t *testing.T) {
	testCases := []struct {
		name     string
		page     string
		expected gallery.DownloadCommandResponse
	}{
		{
			name:     "queued",
			page:     `<div id="db"><p>A 1280x resolution download has been queued for client H@H Home.</p></div>`,
			expected: gallery.DOWNLOAD_COMMAND_SUCCESS,
		},
		{
			name:     "insufficient funds",
			page:     `<div id="db"><p>You have insufficient funds to download this archive.</p></div>`,
			expected: gallery.DOWNLOAD_COMMAND_INSUFFICIENT_FUNDS,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			site := newTestSite(t)
			site.html("/archiver.php", "<html><body>"+test.page+"</body></html>")
			client := site.client()

			resp, err := client.SendDownloadCommand(context.Background(), site.server.URL+"/archiver.php?gid=1001", gallery.RESOLUTION_ORIGINAL)
			require.NoError(t, err)
			require.Equal(t, test.expected, resp)

			form, err := url.ParseQuery(site.body("/archiver.php"))
			require.NoError(t, err)
			require.Equal(t, "org", form.Get("hathdl_xres"))
		})
	}
}

func TestGalleryHost(t *testing.T) {
	config := DefaultConfig()
	client, err := NewClient(ClientOptions{Config: config})
	require.NoError(t, err)
	require.Equal(t, gallery.HOST_EHENTAI, client.GalleryHost())
	require.Equal(t, "https://e-hentai.org", client.baseURL())

	client.SetGalleryHost(gallery.HOST_EXHENTAI)
	require.Equal(t, "https://exhentai.org", client.baseURL())
	require.Equal(t, "https://s.exhentai.org/api.php", client.apiURL())
}
