// Package setting holds the persisted settings, the signed in user and the
// tag translator, and the session bootstrap that keeps them current.
package setting

import (
	"context"
	"net/url"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/gallery"
	"ehclient/lib/request"
)

// GALLERY_HOST_KEY is the user default the gallery host is mirrored to.
const GALLERY_HOST_KEY = "galleryHost"

// HAPTIC_SOFT is played when the sni bypass is toggled.
const HAPTIC_SOFT = "soft"

type Client interface {
	Igneous(ctx context.Context) (request.Ack, error)
	UserInfo(ctx context.Context, uid string) (gallery.User, error)
	Funds(ctx context.Context) (gallery.Funds, error)
	FavoriteNames(ctx context.Context) (map[int]string, error)
	ProfileIndex(ctx context.Context) (index int, found bool, err error)
	CreateProfile(ctx context.Context, name string) (request.Ack, error)
	TagTranslator(ctx context.Context, language string, updatedDate time.Time) (*gallery.TagTranslator, error)
	Greeting(ctx context.Context) (gallery.Greeting, error)
	SetGalleryHost(host gallery.GalleryHost)
}

type Database interface {
	FetchAppEnv(ctx context.Context) (gallery.AppEnv, error)
	UpdateSetting(ctx context.Context, setting gallery.Setting) error
	UpdateUser(ctx context.Context, user gallery.User) error
	UpdateTagTranslator(ctx context.Context, translator gallery.TagTranslator) error
	RemoveImageURLs(ctx context.Context) error
}

type UserDefaults interface {
	SetValue(key, value string)
	Value(key string) (string, bool)
}

type CookieStore interface {
	EHentai() *url.URL
	ExHentai() *url.URL
	GetCookie(host *url.URL, key string) string
	SetOrEditCookie(host *url.URL, key, value string)
	SetCredentials(memberID, passHash string)
	MemberID() string
	DidLogin() bool
	ShouldFetchIgneous() bool
	RemoveTransient()
	SyncHosts()
	ClearAll()
}

type Device interface {
	IsPad() bool
	GenerateHaptic(style string)
	SetAlternateIcon(name string) error
	AlternateIconName() string
	SetPortraitOrientationMask()
	ClearImageCache()
	ImageCacheSize() (int64, error)
}

type Env struct {
	Client       Client
	Database     Database
	UserDefaults UserDefaults
	Cookies      CookieStore
	Device       Device
	// Language the tag translator is fetched for, none is fetched when "".
	Language string
}

type State struct {
	Setting       gallery.Setting
	TagTranslator gallery.TagTranslator
	User          gallery.User

	Loaded  bool
	LoadErr *apperr.Error

	TagTranslatorLoading bool
	TagTranslatorErr     *apperr.Error
	UserInfoLoading      bool
	UserInfoErr          *apperr.Error
	FundsErr             *apperr.Error
	GreetingLoading      bool

	Account    AccountState
	General    GeneralState
	Appearance AppearanceState
}

func New() State {
	return State{Setting: gallery.DefaultSetting()}
}
