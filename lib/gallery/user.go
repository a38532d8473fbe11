package gallery

import (
	"slices"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
)

type User struct {
	DisplayName        string         `json:"display_name"`
	AvatarURL          string         `json:"avatar_url"`
	GalleryPoints      string         `json:"gallery_points"`
	Credits            string         `json:"credits"`
	FavoriteCategories map[int]string `json:"favorite_categories"`
	Greeting           *Greeting      `json:"greeting,omitempty"`
}

// Greeting is what the daily event pane awarded. An empty greeting with only
// UpdateTime set records a day the pane was not shown.
type Greeting struct {
	GainedEXP     int       `json:"gained_exp"`
	GainedCredits int       `json:"gained_credits"`
	GainedGP      int       `json:"gained_gp"`
	GainedHath    int       `json:"gained_hath"`
	UpdateTime    time.Time `json:"update_time"`
}

func (g Greeting) IsEmpty() bool {
	return g.GainedEXP == 0 && g.GainedCredits == 0 && g.GainedGP == 0 && g.GainedHath == 0
}

// GreetingDue reports whether a greeting should be fetched at now, the site
// hands one out per UTC day.
func GreetingDue(last *Greeting, now time.Time) bool {
	if last == nil || last.UpdateTime.IsZero() {
		return true
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return last.UpdateTime.Before(today)
}

// SetGreeting keeps the most recent greeting, one without an update time is
// ignored.
func (u *User) SetGreeting(g Greeting) {
	if g.UpdateTime.IsZero() {
		return
	}
	if u.Greeting == nil || u.Greeting.UpdateTime.Before(g.UpdateTime) {
		u.Greeting = &g
	}
}

// Merge copies the fields present in other, balances only as a pair.
func (u *User) Merge(other User) {
	if other.DisplayName != "" {
		u.DisplayName = other.DisplayName
	}
	if other.AvatarURL != "" {
		u.AvatarURL = other.AvatarURL
	}
	if other.GalleryPoints != "" && other.Credits != "" {
		u.GalleryPoints = other.GalleryPoints
		u.Credits = other.Credits
	}
}

type GalleryHost string

const (
	HOST_EHENTAI  GalleryHost = "E-Hentai"
	HOST_EXHENTAI GalleryHost = "ExHentai"
)

type AutoLockPolicy int

const (
	AUTO_LOCK_NEVER AutoLockPolicy = iota
	AUTO_LOCK_INSTANTLY
	AUTO_LOCK_15_SECONDS
	AUTO_LOCK_1_MINUTE
	AUTO_LOCK_5_MINUTES
	AUTO_LOCK_10_MINUTES
)

type ColorScheme int

const (
	COLOR_SCHEME_AUTOMATIC ColorScheme = iota
	COLOR_SCHEME_LIGHT
	COLOR_SCHEME_DARK
)

// Setting is the user-facing configuration persisted across sessions.
type Setting struct {
	GalleryHost          GalleryHost    `json:"gallery_host"`
	EnablesTagsExtension bool           `json:"enables_tags_extension"`
	TranslatesTags       bool           `json:"translates_tags"`
	AutoLockPolicy       AutoLockPolicy `json:"auto_lock_policy"`
	BackgroundBlurRadius float64        `json:"background_blur_radius"`
	EnablesLandscape     bool           `json:"enables_landscape"`
	MaximumScaleFactor   float64        `json:"maximum_scale_factor"`
	DoubleTapScaleFactor float64        `json:"double_tap_scale_factor"`
	PreferredColorScheme ColorScheme    `json:"preferred_color_scheme"`
	AppIconType          string         `json:"app_icon_type"`
	BypassesSNIFiltering bool           `json:"bypasses_sni_filtering"`
	ShowsNewDawnGreeting bool           `json:"shows_new_dawn_greeting"`
}

func DefaultSetting() Setting {
	return Setting{
		GalleryHost:          HOST_EHENTAI,
		MaximumScaleFactor:   3,
		DoubleTapScaleFactor: 2,
		AppIconType:          "default",
	}
}

type TagTranslator struct {
	Language              string            `json:"language"`
	UpdatedDate           time.Time         `json:"updated_date"`
	HasCustomTranslations bool              `json:"has_custom_translations"`
	Translations          map[string]string `json:"translations"`
}

// Translate looks up text, falling back to the original text.
func (t TagTranslator) Translate(text string) string {
	if v, ok := t.Translations[text]; ok && v != "" {
		return v
	}
	if i := strings.Index(text, ":"); i >= 0 {
		if v, ok := t.Translations[text[i+1:]]; ok && v != "" {
			return v
		}
	}
	return text
}

// Lookup returns the known tags closest to text, at most limit of them.
func (t TagTranslator) Lookup(text string, limit int) []string {
	type scored struct {
		key   string
		score float64
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var candidates []scored
	for key, value := range t.Translations {
		score := matchr.JaroWinkler(text, strings.ToLower(key), false)
		if s := matchr.JaroWinkler(text, strings.ToLower(value), false); s > score {
			score = s
		}
		if score < 0.8 {
			continue
		}
		candidates = append(candidates, scored{key: key, score: score})
	}
	slices.SortFunc(candidates, func(a, b scored) int {
		if a.score != b.score {
			if a.score > b.score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.key, b.key)
	})

	out := []string{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].key)
	}
	return out
}

// AppEnv is everything loaded from persistence at launch.
type AppEnv struct {
	Setting       Setting
	TagTranslator TagTranslator
	User          User
}
