package gallery

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdentityFromURL(t *testing.T) {
	testCases := []struct {
		url   string
		gid   string
		token string
		fails bool
	}{
		{url: "https://e-hentai.org/g/1000/abc123/", gid: "1000", token: "abc123"},
		{url: "https://exhentai.org/g/2/def", gid: "2", token: "def"},
		{url: "https://e-hentai.org/s/abc/1000-1", fails: true},
		{url: "https://e-hentai.org/g/1000/", fails: true},
	}

	for _, test := range testCases {
		gid, token, err := IdentityFromURL(test.url)
		if test.fails {
			require.Error(t, err, test.url)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.gid, gid)
		require.Equal(t, test.token, token)
	}
}

func TestResolutionParameter(t *testing.T) {
	require.Len(t, Resolutions, 6)
	require.Equal(t, "org", RESOLUTION_ORIGINAL.Parameter())
	require.Equal(t, "780", RESOLUTION_780X.Parameter())
	require.Equal(t, "2400", RESOLUTION_2400X.Parameter())

	r, ok := ParseResolution("original")
	require.True(t, ok)
	require.Equal(t, RESOLUTION_ORIGINAL, r)

	_, ok = ParseResolution("4k")
	require.False(t, ok)
}

func TestHathArchiveValidity(t *testing.T) {
	require.True(t, HathArchive{FileSize: "12 MiB", GPPrice: "Free"}.IsValid())
	require.False(t, HathArchive{FileSize: "N/A", GPPrice: "N/A"}.IsValid())
	require.False(t, HathArchive{FileSize: "12 MiB", GPPrice: "N/A"}.IsValid())
}

func TestAssociatedKeywordQuery(t *testing.T) {
	require.Equal(t, "artist:foo$", AssociatedKeyword{Category: "artist", Content: "foo"}.Query())
	require.Equal(t, `female:"big hat$"`, AssociatedKeyword{Category: "female", Content: "big hat"}.Query())
	require.Equal(t, "plain", AssociatedKeyword{Content: "plain"}.Query())
	require.Equal(t, "title only", AssociatedKeyword{Title: "title only"}.Query())
}

func TestFilterEncode(t *testing.T) {
	values := url.Values{}
	Filter{
		ExcludedCategories:     []Category{CATEGORY_MISC, CATEGORY_WESTERN},
		Advanced:               true,
		SearchGalleryName:      true,
		MinimumRatingActivated: true,
		MinimumRating:          4,
	}.Encode(values)

	require.Equal(t, "513", values.Get("f_cats"))
	require.Equal(t, "1", values.Get("advsearch"))
	require.Equal(t, "on", values.Get("f_sname"))
	require.Equal(t, "", values.Get("f_stags"))
	require.Equal(t, "4", values.Get("f_srdd"))

	plain := url.Values{}
	Filter{}.Encode(plain)
	require.Empty(t, plain)
}

func TestUserMerge(t *testing.T) {
	u := User{DisplayName: "old", GalleryPoints: "1", Credits: "2"}
	u.Merge(User{DisplayName: "new", GalleryPoints: "10"})
	require.Equal(t, "new", u.DisplayName)
	require.Equal(t, "1", u.GalleryPoints)

	u.Merge(User{GalleryPoints: "10", Credits: "20"})
	require.Equal(t, "10", u.GalleryPoints)
	require.Equal(t, "20", u.Credits)
}

func TestTagTranslator(t *testing.T) {
	tr := TagTranslator{Translations: map[string]string{
		"glasses":     "眼镜",
		"big breasts": "巨乳",
		"sole female": "单女主",
	}}

	require.Equal(t, "眼镜", tr.Translate("glasses"))
	require.Equal(t, "眼镜", tr.Translate("female:glasses"))
	require.Equal(t, "unknown", tr.Translate("unknown"))

	res := tr.Lookup("glases", 3)
	require.Equal(t, []string{"glasses"}, res)
	require.Empty(t, tr.Lookup("", 3))
}

func TestGreetingDue(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		last     *Greeting
		expected bool
	}{
		{name: "never fetched", expected: true},
		{name: "no update time", last: &Greeting{GainedGP: 1}, expected: true},
		{name: "earlier today", last: &Greeting{UpdateTime: now.Add(-time.Hour)}, expected: false},
		{name: "yesterday", last: &Greeting{UpdateTime: now.Add(-10 * time.Hour)}, expected: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, GreetingDue(tc.last, now))
		})
	}
}

func TestSetGreeting(t *testing.T) {
	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	user := User{}

	user.SetGreeting(Greeting{GainedGP: 10})
	require.Nil(t, user.Greeting)

	user.SetGreeting(Greeting{GainedGP: 10, UpdateTime: day})
	require.Equal(t, 10, user.Greeting.GainedGP)

	user.SetGreeting(Greeting{GainedGP: 20, UpdateTime: day.Add(-time.Hour)})
	require.Equal(t, 10, user.Greeting.GainedGP)

	user.SetGreeting(Greeting{UpdateTime: day.Add(24 * time.Hour)})
	require.True(t, user.Greeting.IsEmpty())
}
