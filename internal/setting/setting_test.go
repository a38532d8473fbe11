package setting

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/cookies"
	"ehclient/lib/device"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/request"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	lock  sync.Mutex
	calls []string
	host  gallery.GalleryHost

	profileFound bool
	translator   *gallery.TagTranslator
	translations int
	greetingErr  error
}

func (c *fakeClient) record(call string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.calls = append(c.calls, call)
}

func (c *fakeClient) Calls() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeClient) Igneous(ctx context.Context) (request.Ack, error) {
	c.record("igneous")
	return request.Ack{StatusCode: 200}, nil
}

func (c *fakeClient) UserInfo(ctx context.Context, uid string) (gallery.User, error) {
	c.record("user-info " + uid)
	return gallery.User{DisplayName: "tester", AvatarURL: "https://forums/avatar.png"}, nil
}

func (c *fakeClient) Funds(ctx context.Context) (gallery.Funds, error) {
	c.record("funds")
	return gallery.Funds{GP: "1,000", Credits: "20"}, nil
}

func (c *fakeClient) FavoriteNames(ctx context.Context) (map[int]string, error) {
	c.record("favorite-names")
	return map[int]string{0: "Favorites 0", 1: "Later"}, nil
}

func (c *fakeClient) ProfileIndex(ctx context.Context) (int, bool, error) {
	c.record("profile-index")
	if c.profileFound {
		return 2, true, nil
	}
	return 0, false, nil
}

func (c *fakeClient) CreateProfile(ctx context.Context, name string) (request.Ack, error) {
	c.record("create-profile " + name)
	return request.Ack{StatusCode: 200}, nil
}

func (c *fakeClient) TagTranslator(ctx context.Context, language string, updatedDate time.Time) (*gallery.TagTranslator, error) {
	c.record("tag-translator " + language)
	c.lock.Lock()
	c.translations++
	c.lock.Unlock()
	return c.translator, nil
}

func (c *fakeClient) Greeting(ctx context.Context) (gallery.Greeting, error) {
	c.record("greeting")
	if c.greetingErr != nil {
		return gallery.Greeting{}, c.greetingErr
	}
	return gallery.Greeting{GainedGP: 10000, GainedHath: 11, UpdateTime: time.Now()}, nil
}

func (c *fakeClient) SetGalleryHost(host gallery.GalleryHost) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.host = host
}

func (c *fakeClient) Host() gallery.GalleryHost {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.host
}

type fakeDatabase struct {
	lock              sync.Mutex
	env               gallery.AppEnv
	setting           *gallery.Setting
	user              *gallery.User
	translator        *gallery.TagTranslator
	removedImageURLs  bool
	fetchAppEnvFailed bool
}

func (d *fakeDatabase) FetchAppEnv(ctx context.Context) (gallery.AppEnv, error) {
	if d.fetchAppEnvFailed {
		return gallery.AppEnv{}, context.DeadlineExceeded
	}
	return d.env, nil
}

func (d *fakeDatabase) UpdateSetting(ctx context.Context, setting gallery.Setting) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.setting = &setting
	return nil
}

func (d *fakeDatabase) UpdateUser(ctx context.Context, user gallery.User) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.user = &user
	return nil
}

func (d *fakeDatabase) UpdateTagTranslator(ctx context.Context, translator gallery.TagTranslator) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.translator = &translator
	return nil
}

func (d *fakeDatabase) RemoveImageURLs(ctx context.Context) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.removedImageURLs = true
	return nil
}

type memoryDefaults struct {
	lock   sync.Mutex
	values map[string]string
}

func (m *memoryDefaults) SetValue(key, value string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
}

func (m *memoryDefaults) Value(key string) (string, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	v, ok := m.values[key]
	return v, ok
}

type fixture struct {
	client   *fakeClient
	database *fakeDatabase
	defaults *memoryDefaults
	cookies  *cookies.Store
	device   *device.Headless
	store    *flow.Store[State, Action, Env]
}

var reducer flow.Reducer[State, Action, Env] = Reducer

func newFixture(t *testing.T, language string) *fixture {
	t.Helper()
	jar, err := cookies.NewStore("https://e-hentai.org", "https://exhentai.org")
	require.NoError(t, err)

	f := &fixture{
		client:   &fakeClient{},
		database: &fakeDatabase{env: gallery.AppEnv{Setting: gallery.DefaultSetting()}},
		defaults: &memoryDefaults{},
		cookies:  jar,
		device:   &device.Headless{ImageCacheDir: t.TempDir()},
	}
	env := Env{
		Client:       f.client,
		Database:     f.database,
		UserDefaults: f.defaults,
		Cookies:      f.cookies,
		Device:       f.device,
		Language:     language,
	}
	f.store = flow.NewStore(New(), reducer, env)
	t.Cleanup(f.store.Close)
	return f
}

func (f *fixture) dispatch(actions ...Action) State {
	for _, action := range actions {
		f.store.Send(action)
		f.store.Idle()
	}
	return f.store.Snapshot()
}

func (f *fixture) savedSetting() gallery.Setting {
	f.database.lock.Lock()
	defer f.database.lock.Unlock()
	return *f.database.setting
}

func TestAutoLockAndBlurStayConsistent(t *testing.T) {
	testCases := []struct {
		name       string
		actions    []Action
		policy     gallery.AutoLockPolicy
		blurRadius float64
	}{
		{
			name:       "enabling auto lock without blur sets a blur",
			actions:    []Action{SetAutoLockPolicy{Policy: gallery.AUTO_LOCK_1_MINUTE}},
			policy:     gallery.AUTO_LOCK_1_MINUTE,
			blurRadius: BLUR_RADIUS_ON_LOCK,
		},
		{
			name: "enabling auto lock keeps an existing blur",
			actions: []Action{
				SetBackgroundBlurRadius{Radius: 4},
				SetAutoLockPolicy{Policy: gallery.AUTO_LOCK_INSTANTLY},
			},
			policy:     gallery.AUTO_LOCK_INSTANTLY,
			blurRadius: 4,
		},
		{
			name: "removing the blur disables auto lock",
			actions: []Action{
				SetAutoLockPolicy{Policy: gallery.AUTO_LOCK_5_MINUTES},
				SetBackgroundBlurRadius{Radius: 0},
			},
			policy:     gallery.AUTO_LOCK_NEVER,
			blurRadius: 0,
		},
		{
			name:       "never leaves the blur alone",
			actions:    []Action{SetAutoLockPolicy{Policy: gallery.AUTO_LOCK_NEVER}},
			policy:     gallery.AUTO_LOCK_NEVER,
			blurRadius: 0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "")
			state := f.dispatch(tc.actions...)
			require.Equal(t, tc.policy, state.Setting.AutoLockPolicy)
			require.Equal(t, tc.blurRadius, state.Setting.BackgroundBlurRadius)
			require.Equal(t, state.Setting, f.savedSetting())
		})
	}
}

func TestScaleFactorsStayOrdered(t *testing.T) {
	f := newFixture(t, "")

	state := f.dispatch(SetMaximumScaleFactor{Factor: 1.5})
	require.Equal(t, 1.5, state.Setting.MaximumScaleFactor)
	require.Equal(t, 1.5, state.Setting.DoubleTapScaleFactor)

	state = f.dispatch(SetDoubleTapScaleFactor{Factor: 4})
	require.Equal(t, 4.0, state.Setting.MaximumScaleFactor)
	require.Equal(t, 4.0, state.Setting.DoubleTapScaleFactor)
}

func TestGalleryHost(t *testing.T) {
	f := newFixture(t, "")
	state := f.dispatch(SetGalleryHost{Host: gallery.HOST_EXHENTAI})

	require.Equal(t, gallery.HOST_EXHENTAI, state.Setting.GalleryHost)
	require.Equal(t, gallery.HOST_EXHENTAI, f.client.Host())
	value, ok := f.defaults.Value(GALLERY_HOST_KEY)
	require.True(t, ok)
	require.Equal(t, "ExHentai", value)
	require.Equal(t, gallery.HOST_EXHENTAI, f.savedSetting().GalleryHost)
}

func TestDeviceBindings(t *testing.T) {
	f := newFixture(t, "")
	f.dispatch(SetLandscape{Enabled: true})
	require.False(t, f.device.OrientationLocked())
	f.dispatch(SetLandscape{Enabled: false})
	require.True(t, f.device.OrientationLocked())

	f.dispatch(SetBypassesSNIFiltering{Enabled: true})
	require.Equal(t, []string{HAPTIC_SOFT}, f.device.Haptics())

	state := f.dispatch(SetAppIcon{Name: "dark"})
	require.Equal(t, "dark", f.device.AlternateIconName())
	require.Equal(t, "dark", state.Setting.AppIconType)

	pad := newFixture(t, "")
	pad.device.Pad = true
	pad.dispatch(SetLandscape{Enabled: false})
	require.False(t, pad.device.OrientationLocked())
}

func indexOf(t *testing.T, calls []string, call string) int {
	t.Helper()
	i := slices.Index(calls, call)
	require.GreaterOrEqual(t, i, 0, "%q not called in %v", call, calls)
	return i
}

func TestLogin(t *testing.T) {
	f := newFixture(t, "")
	f.client.profileFound = true

	state := f.dispatch(Account{Action: Login{MemberID: "424242", PassHash: "hash"}})

	calls := f.client.Calls()
	userInfo := indexOf(t, calls, "user-info 424242")
	indexOf(t, calls, "igneous")
	require.Greater(t, indexOf(t, calls, "funds"), userInfo)
	require.Greater(t, indexOf(t, calls, "favorite-names"), userInfo)
	require.Greater(t, indexOf(t, calls, "profile-index"), userInfo)

	require.Equal(t, "tester", state.User.DisplayName)
	require.Equal(t, "1,000", state.User.GalleryPoints)
	require.Equal(t, "20", state.User.Credits)
	require.Equal(t, "Later", state.User.FavoriteCategories[1])
	require.True(t, state.Account.LoggedIn)
	require.Equal(t, "424242", state.Account.MemberID)
	require.Equal(t, "2", f.cookies.GetCookie(f.cookies.EHentai(), cookies.SELECTED_PROFILE))
	require.Nil(t, state.UserInfoErr)
	require.False(t, state.UserInfoLoading)
}

func TestLoginCreatesMissingProfile(t *testing.T) {
	f := newFixture(t, "")
	f.dispatch(Account{Action: Login{MemberID: "1", PassHash: "h"}})
	require.Contains(t, f.client.Calls(), "create-profile EhPanda")
}

func TestFetchesNeedLogin(t *testing.T) {
	f := newFixture(t, "")
	f.dispatch(FetchIgneous{}, FetchUserInfo{}, FetchFunds{}, FetchFavoriteCategories{}, FetchProfileIndex{})
	require.Empty(t, f.client.Calls())
}

func TestLogout(t *testing.T) {
	f := newFixture(t, "")
	f.dispatch(Account{Action: Login{MemberID: "1", PassHash: "h"}})
	require.NoError(t, os.WriteFile(filepath.Join(f.device.ImageCacheDir, "1.jpg"), []byte("x"), 0644))

	state := f.dispatch(Account{Action: LogoutConfirmed{}})
	require.Equal(t, gallery.User{}, state.User)
	require.Equal(t, AccountState{}, state.Account)
	require.False(t, f.cookies.DidLogin())

	f.database.lock.Lock()
	require.True(t, f.database.removedImageURLs)
	require.Equal(t, gallery.User{}, *f.database.user)
	f.database.lock.Unlock()

	entries, err := os.ReadDir(f.device.ImageCacheDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLoadUserSettings(t *testing.T) {
	f := newFixture(t, "zh-Hans")
	f.database.env.Setting.EnablesTagsExtension = true
	f.database.env.User = gallery.User{DisplayName: "stored"}
	f.defaults.SetValue(GALLERY_HOST_KEY, string(gallery.HOST_EXHENTAI))
	f.cookies.SetCredentials("7", "h")
	f.client.translator = &gallery.TagTranslator{Language: "zh-Hans", Translations: map[string]string{"a": "b"}}

	state := f.dispatch(LoadUserSettings{})
	require.True(t, state.Loaded)
	require.Equal(t, gallery.HOST_EXHENTAI, state.Setting.GalleryHost)
	require.Equal(t, gallery.HOST_EXHENTAI, f.client.Host())
	require.Equal(t, "tester", state.User.DisplayName)
	require.Equal(t, "b", state.TagTranslator.Translations["a"])

	calls := f.client.Calls()
	indexOf(t, calls, "igneous")
	indexOf(t, calls, "user-info 7")
	indexOf(t, calls, "tag-translator zh-Hans")
}

func TestLoadUserSettingsFailure(t *testing.T) {
	f := newFixture(t, "")
	f.database.fetchAppEnvFailed = true

	state := f.dispatch(LoadUserSettings{})
	require.False(t, state.Loaded)
	require.Equal(t, apperr.NETWORK_FAILED, state.LoadErr.Kind)
	require.Equal(t, gallery.DefaultSetting(), state.Setting)
}

func TestTagTranslator(t *testing.T) {
	t.Run("up to date keeps the current one", func(t *testing.T) {
		f := newFixture(t, "ja")
		state := f.dispatch(SetTagsExtension{Enabled: true})
		require.Equal(t, "ja", state.TagTranslator.Language)
		require.False(t, state.TagTranslatorLoading)
		require.Equal(t, 1, f.client.translations)
	})

	t.Run("no language", func(t *testing.T) {
		f := newFixture(t, "")
		f.dispatch(FetchTagTranslator{})
		require.Empty(t, f.client.Calls())
	})

	t.Run("custom translations are kept", func(t *testing.T) {
		f := newFixture(t, "ja")
		imported := gallery.TagTranslator{Language: "ja", Translations: map[string]string{"x": "y"}}
		state := f.dispatch(General{Action: TranslationsImported{Translator: imported}})
		require.True(t, state.TagTranslator.HasCustomTranslations)
		require.Equal(t, "y", state.TagTranslator.Translate("x"))

		f.dispatch(FetchTagTranslator{})
		require.Empty(t, f.client.Calls())

		state = f.dispatch(General{Action: RemoveCustomTranslations{}})
		require.False(t, state.TagTranslator.HasCustomTranslations)
		require.Empty(t, state.TagTranslator.Translations)
	})

	t.Run("in flight", func(t *testing.T) {
		state := New()
		env := Env{Client: &fakeClient{}, Language: "ja"}
		require.NotEmpty(t, reduceSetting(&state, FetchTagTranslator{}, env))
		require.True(t, state.TagTranslatorLoading)
		require.Empty(t, reduceSetting(&state, FetchTagTranslator{}, env))
	})
}

func TestRouteAndImageCache(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(f.device.ImageCacheDir, "1.jpg"), []byte("x"), 0644))

	state := f.dispatch(Appearance{Action: SetRoute{Route: ROUTE_GENERAL}}, General{Action: ClearImageCache{}})
	require.Equal(t, ROUTE_GENERAL, state.Appearance.Route)
	require.False(t, state.General.ClearingImageCache)
	entries, err := os.ReadDir(f.device.ImageCacheDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestGreeting(t *testing.T) {
	t.Run("needs the setting and a login", func(t *testing.T) {
		f := newFixture(t, "")
		f.dispatch(FetchGreeting{})
		f.cookies.SetCredentials("7", "h")
		f.dispatch(FetchGreeting{})
		require.Empty(t, f.client.Calls())
	})

	t.Run("once per day", func(t *testing.T) {
		f := newFixture(t, "")
		f.cookies.SetCredentials("7", "h")
		state := f.dispatch(SetShowsNewDawnGreeting{Enabled: true})
		require.True(t, f.savedSetting().ShowsNewDawnGreeting)
		require.NotNil(t, state.User.Greeting)
		require.Equal(t, 11, state.User.Greeting.GainedHath)
		require.False(t, state.GreetingLoading)

		f.dispatch(FetchGreeting{})
		require.Equal(t, []string{"greeting"}, f.client.Calls())

		f.database.lock.Lock()
		require.Equal(t, 10000, f.database.user.Greeting.GainedGP)
		f.database.lock.Unlock()
	})

	t.Run("no greeting shown", func(t *testing.T) {
		f := newFixture(t, "")
		f.cookies.SetCredentials("7", "h")
		f.client.greetingErr = apperr.Newf(apperr.PARSE_FAILED, "event pane not found")
		state := f.dispatch(SetShowsNewDawnGreeting{Enabled: true})
		require.NotNil(t, state.User.Greeting)
		require.True(t, state.User.Greeting.IsEmpty())

		f.dispatch(FetchGreeting{})
		require.Equal(t, []string{"greeting"}, f.client.Calls())
	})

	t.Run("network failure retries", func(t *testing.T) {
		f := newFixture(t, "")
		f.cookies.SetCredentials("7", "h")
		f.client.greetingErr = apperr.Newf(apperr.NETWORK_FAILED, "timeout")
		state := f.dispatch(SetShowsNewDawnGreeting{Enabled: true})
		require.Nil(t, state.User.Greeting)

		f.dispatch(FetchGreeting{})
		require.Equal(t, []string{"greeting", "greeting"}, f.client.Calls())
	})
}

func TestImageCacheSize(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(f.device.ImageCacheDir, "1.jpg"), make([]byte, 2000), 0644))

	state := f.dispatch(General{Action: CalculateImageCacheSize{}})
	require.Equal(t, "2.0 kB", state.General.ImageCacheSize)

	state = f.dispatch(General{Action: ClearImageCache{}})
	require.Equal(t, "0 B", state.General.ImageCacheSize)
}
