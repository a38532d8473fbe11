package appdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ehclient/lib/gallery"
	"ehclient/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setup(t testing.TB, config Config) DB {
	cleanup := telemetry.SetupForTesting(t, "test:lib/appdb")
	t.Cleanup(cleanup)

	sqlite, err := config.OpenDB()
	require.NoError(t, err)
	db, err := New(context.Background(), sqlite)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFetchAppEnvDefaults(t *testing.T) {
	db := setup(t, Config{File: ":memory:"})

	env, err := db.FetchAppEnv(context.Background())
	require.NoError(t, err)
	require.Equal(t, gallery.DefaultSetting(), env.Setting)
	require.Equal(t, gallery.User{}, env.User)
}

func TestAppEnvRoundTrip(t *testing.T) {
	db := setup(t, Config{File: filepath.Join(t.TempDir(), "nested", "ehclient.db")})
	ctx := context.Background()

	setting := gallery.DefaultSetting()
	setting.GalleryHost = gallery.HOST_EXHENTAI
	setting.AutoLockPolicy = gallery.AUTO_LOCK_1_MINUTE
	setting.BackgroundBlurRadius = 10
	require.NoError(t, db.UpdateSetting(ctx, setting))

	user := gallery.User{
		DisplayName:        "Alice Smith",
		GalleryPoints:      "150000",
		Credits:            "2000",
		FavoriteCategories: map[int]string{0: "Favorites 0", 9: "Read Later"},
	}
	require.NoError(t, db.UpdateUser(ctx, user))

	translator := gallery.TagTranslator{
		Language:     "zh-Hans",
		UpdatedDate:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Translations: map[string]string{"glasses": "眼镜"},
	}
	require.NoError(t, db.UpdateTagTranslator(ctx, translator))

	// updating one column leaves the others alone
	setting.EnablesLandscape = true
	require.NoError(t, db.UpdateSetting(ctx, setting))

	env, err := db.FetchAppEnv(ctx)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(gallery.AppEnv{
		Setting:       setting,
		User:          user,
		TagTranslator: translator,
	}, env))
}

func TestImageURLs(t *testing.T) {
	db := setup(t, Config{File: ":memory:"})
	ctx := context.Background()

	require.NoError(t, db.SaveImageURLs(ctx, "1001", []gallery.GalleryContent{
		{Tag: 2, URL: "https://example.org/02.jpg"},
		{Tag: 1, URL: "https://example.org/01.jpg"},
	}))
	require.NoError(t, db.SaveImageURLs(ctx, "1001", []gallery.GalleryContent{
		{Tag: 2, URL: "https://example.org/02b.jpg"},
	}))

	contents, err := db.ImageURLs(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, []gallery.GalleryContent{
		{Tag: 1, URL: "https://example.org/01.jpg"},
		{Tag: 2, URL: "https://example.org/02b.jpg"},
	}, contents)

	require.NoError(t, db.RemoveImageURLs(ctx))
	contents, err = db.ImageURLs(ctx, "1001")
	require.NoError(t, err)
	require.Empty(t, contents)
}

func TestHistoryAndReadingProgress(t *testing.T) {
	db := setup(t, Config{File: ":memory:"})
	ctx := context.Background()
	opened := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

	page, err := db.ReadingProgress(ctx, "1001")
	require.NoError(t, err)
	require.Zero(t, page)

	require.NoError(t, db.SaveReadingProgress(ctx, "1001", 4))
	require.NoError(t, db.SaveReadingProgress(ctx, "1001", 7))
	page, err = db.ReadingProgress(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, 7, page)

	first := gallery.Gallery{GID: "1001", Token: "aaa111", Title: "First"}
	second := gallery.Gallery{GID: "1002", Token: "bbb222", Title: "Second"}
	require.NoError(t, db.UpdateHistoryItem(ctx, first, opened))
	require.NoError(t, db.UpdateHistoryItem(ctx, second, opened.Add(time.Minute)))
	first.Title = "First, retitled"
	require.NoError(t, db.UpdateHistoryItem(ctx, first, opened.Add(time.Hour)))

	items, err := db.HistoryItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, first, items[0].Gallery)
	require.Equal(t, 7, items[0].ReadingProgress)
	require.True(t, items[0].LastOpenTime.Equal(opened.Add(time.Hour)))
	require.Equal(t, second, items[1].Gallery)
	require.Zero(t, items[1].ReadingProgress)

	require.NoError(t, db.ClearHistoryItems(ctx))
	items, err = db.HistoryItems(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
	page, err = db.ReadingProgress(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, 7, page)
}

func TestUserDefaults(t *testing.T) {
	db := setup(t, Config{File: ":memory:"})
	defaults := db.UserDefaults()

	_, ok := defaults.Value("galleryHost")
	require.False(t, ok)

	defaults.SetValue("galleryHost", "ExHentai")
	defaults.SetValue("galleryHost", "E-Hentai")
	value, ok := defaults.Value("galleryHost")
	require.True(t, ok)
	require.Equal(t, "E-Hentai", value)
}

func TestOpenDBRejectsUnknownURL(t *testing.T) {
	_, err := Config{URL: "postgres://localhost/db"}.OpenDB()
	require.Error(t, err)

	_, err = Config{}.OpenDB()
	require.Error(t, err)
}
