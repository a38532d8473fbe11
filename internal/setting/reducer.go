package setting

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/cookies"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"
	"ehclient/lib/request"
)

type Action interface {
	settingAction()
}

// Bindings, each one writes a single setting field.
type (
	SetGalleryHost          struct{ Host gallery.GalleryHost }
	SetTagsExtension        struct{ Enabled bool }
	SetTranslatesTags       struct{ Enabled bool }
	SetAutoLockPolicy       struct{ Policy gallery.AutoLockPolicy }
	SetBackgroundBlurRadius struct{ Radius float64 }
	SetLandscape            struct{ Enabled bool }
	SetMaximumScaleFactor   struct{ Factor float64 }
	SetDoubleTapScaleFactor struct{ Factor float64 }
	SetColorScheme          struct{ Scheme gallery.ColorScheme }
	SetAppIcon              struct{ Name string }
	SetBypassesSNIFiltering struct{ Enabled bool }
	SetShowsNewDawnGreeting struct{ Enabled bool }
)

type (
	SyncSetting       struct{}
	SyncUser          struct{}
	SyncTagTranslator struct{}
	SyncAppIconType   struct{}
	AppIconTypeSynced struct{ Name string }

	LoadUserSettings   struct{}
	OnLoadUserSettings struct{ Result flow.Result[Loaded] }

	FetchIgneous     struct{}
	FetchIgneousDone struct{ Result flow.Result[request.Ack] }

	FetchUserInfo     struct{}
	FetchUserInfoDone struct{ Result flow.Result[gallery.User] }

	FetchFunds     struct{}
	FetchFundsDone struct{ Result flow.Result[gallery.Funds] }

	FetchFavoriteCategories     struct{}
	FetchFavoriteCategoriesDone struct{ Result flow.Result[map[int]string] }

	FetchProfileIndex     struct{}
	FetchProfileIndexDone struct{ Result flow.Result[ProfileIndex] }
	CreateDefaultProfile  struct{}

	// FetchGreeting asks for the daily greeting at most once per UTC day.
	FetchGreeting     struct{}
	FetchGreetingDone struct{ Result flow.Result[gallery.Greeting] }

	FetchTagTranslator struct{}
	// a nil translator means the one held is up to date
	FetchTagTranslatorDone struct {
		Result flow.Result[*gallery.TagTranslator]
	}

	// SessionPrepared follows LoginDone once transient cookies are gone.
	SessionPrepared struct{}

	Account    struct{ Action AccountAction }
	General    struct{ Action GeneralAction }
	Appearance struct{ Action AppearanceAction }
)

// Loaded is what LoadUserSettings reads from persistence.
type Loaded struct {
	AppEnv      gallery.AppEnv
	GalleryHost gallery.GalleryHost
}

type ProfileIndex struct {
	Index int
	Found bool
}

func (SetGalleryHost) settingAction()              {}
func (SetTagsExtension) settingAction()            {}
func (SetTranslatesTags) settingAction()           {}
func (SetAutoLockPolicy) settingAction()           {}
func (SetBackgroundBlurRadius) settingAction()     {}
func (SetLandscape) settingAction()                {}
func (SetMaximumScaleFactor) settingAction()       {}
func (SetDoubleTapScaleFactor) settingAction()     {}
func (SetColorScheme) settingAction()              {}
func (SetAppIcon) settingAction()                  {}
func (SetBypassesSNIFiltering) settingAction()     {}
func (SetShowsNewDawnGreeting) settingAction()     {}
func (FetchGreeting) settingAction()               {}
func (FetchGreetingDone) settingAction()           {}
func (SyncSetting) settingAction()                 {}
func (SyncUser) settingAction()                    {}
func (SyncTagTranslator) settingAction()           {}
func (SyncAppIconType) settingAction()             {}
func (AppIconTypeSynced) settingAction()           {}
func (LoadUserSettings) settingAction()            {}
func (OnLoadUserSettings) settingAction()          {}
func (FetchIgneous) settingAction()                {}
func (FetchIgneousDone) settingAction()            {}
func (FetchUserInfo) settingAction()               {}
func (FetchUserInfoDone) settingAction()           {}
func (FetchFunds) settingAction()                  {}
func (FetchFundsDone) settingAction()              {}
func (FetchFavoriteCategories) settingAction()     {}
func (FetchFavoriteCategoriesDone) settingAction() {}
func (FetchProfileIndex) settingAction()           {}
func (FetchProfileIndexDone) settingAction()       {}
func (CreateDefaultProfile) settingAction()        {}
func (FetchTagTranslator) settingAction()          {}
func (FetchTagTranslatorDone) settingAction()      {}
func (SessionPrepared) settingAction()             {}
func (Account) settingAction()                     {}
func (General) settingAction()                     {}
func (Appearance) settingAction()                  {}

// BLUR_RADIUS_ON_LOCK is applied when auto lock is enabled without a blur.
const BLUR_RADIUS_ON_LOCK = 10

var (
	accountReducer    flow.Reducer[AccountState, AccountAction, AccountEnv]    = reduceAccount
	generalReducer    flow.Reducer[GeneralState, GeneralAction, GeneralEnv]    = reduceGeneral
	appearanceReducer flow.Reducer[AppearanceState, AppearanceAction, struct{}] = reduceAppearance
)

var Reducer = flow.Combine(
	reduceSetting,
	flow.Pullback(
		accountReducer,
		func(s *State) *AccountState { return &s.Account },
		func(a Action) (AccountAction, bool) {
			v, ok := a.(Account)
			return v.Action, ok
		},
		func(a AccountAction) Action { return Account{Action: a} },
		func(env Env) AccountEnv { return AccountEnv{Cookies: env.Cookies} },
	),
	flow.Pullback(
		generalReducer,
		func(s *State) *GeneralState { return &s.General },
		func(a Action) (GeneralAction, bool) {
			v, ok := a.(General)
			return v.Action, ok
		},
		func(a GeneralAction) Action { return General{Action: a} },
		func(env Env) GeneralEnv { return GeneralEnv{Device: env.Device} },
	),
	flow.Pullback(
		appearanceReducer,
		func(s *State) *AppearanceState { return &s.Appearance },
		func(a Action) (AppearanceAction, bool) {
			v, ok := a.(Appearance)
			return v.Action, ok
		},
		func(a AppearanceAction) Action { return Appearance{Action: a} },
		func(Env) struct{} { return struct{}{} },
	),
)

func send(actions ...Action) flow.Effect[Action] {
	return flow.Send(actions...)
}

func fireAndForget(work func(ctx context.Context)) flow.Effect[Action] {
	return flow.FireAndForget[Action](work)
}

func reduceSetting(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case SetGalleryHost:
		state.Setting.GalleryHost = action.Host
		host := action.Host
		// switched before returning, every effect launched after this action
		// already targets the new host
		env.Client.SetGalleryHost(host)
		return []flow.Effect[Action]{
			send(SyncSetting{}),
			fireAndForget(func(ctx context.Context) {
				env.UserDefaults.SetValue(GALLERY_HOST_KEY, string(host))
			}),
		}

	case SetTagsExtension:
		state.Setting.EnablesTagsExtension = action.Enabled
		if action.Enabled {
			return []flow.Effect[Action]{send(SyncSetting{}, FetchTagTranslator{})}
		}
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetTranslatesTags:
		state.Setting.TranslatesTags = action.Enabled
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetAutoLockPolicy:
		state.Setting.AutoLockPolicy = action.Policy
		if action.Policy != gallery.AUTO_LOCK_NEVER && state.Setting.BackgroundBlurRadius == 0 {
			state.Setting.BackgroundBlurRadius = BLUR_RADIUS_ON_LOCK
		}
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetBackgroundBlurRadius:
		state.Setting.BackgroundBlurRadius = action.Radius
		if state.Setting.AutoLockPolicy != gallery.AUTO_LOCK_NEVER && action.Radius == 0 {
			state.Setting.AutoLockPolicy = gallery.AUTO_LOCK_NEVER
		}
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetLandscape:
		state.Setting.EnablesLandscape = action.Enabled
		effects := []flow.Effect[Action]{send(SyncSetting{})}
		if !action.Enabled && !env.Device.IsPad() {
			effects = append(effects, fireAndForget(func(ctx context.Context) {
				env.Device.SetPortraitOrientationMask()
			}))
		}
		return effects

	case SetMaximumScaleFactor:
		state.Setting.MaximumScaleFactor = action.Factor
		if state.Setting.DoubleTapScaleFactor > action.Factor {
			state.Setting.DoubleTapScaleFactor = action.Factor
		}
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetDoubleTapScaleFactor:
		state.Setting.DoubleTapScaleFactor = action.Factor
		if state.Setting.MaximumScaleFactor < action.Factor {
			state.Setting.MaximumScaleFactor = action.Factor
		}
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetColorScheme:
		state.Setting.PreferredColorScheme = action.Scheme
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SetAppIcon:
		state.Setting.AppIconType = action.Name
		name := action.Name
		return []flow.Effect[Action]{
			send(SyncSetting{}),
			flow.Task("setting/app-icon", func(ctx context.Context) Action {
				if err := env.Device.SetAlternateIcon(name); err != nil {
					slog.WarnContext(ctx, "failed to set alternate icon", "name", name, "err", err)
				}
				return SyncAppIconType{}
			}),
		}

	case SetBypassesSNIFiltering:
		state.Setting.BypassesSNIFiltering = action.Enabled
		return []flow.Effect[Action]{
			send(SyncSetting{}),
			fireAndForget(func(ctx context.Context) {
				env.Device.GenerateHaptic(HAPTIC_SOFT)
			}),
		}

	case SetShowsNewDawnGreeting:
		state.Setting.ShowsNewDawnGreeting = action.Enabled
		if action.Enabled {
			return []flow.Effect[Action]{send(SyncSetting{}, FetchGreeting{})}
		}
		return []flow.Effect[Action]{send(SyncSetting{})}

	case SyncSetting:
		setting := state.Setting
		return []flow.Effect[Action]{fireAndForget(func(ctx context.Context) {
			if err := env.Database.UpdateSetting(ctx, setting); err != nil {
				slog.WarnContext(ctx, "failed to save setting", "err", err)
			}
		})}

	case SyncUser:
		user := state.User
		return []flow.Effect[Action]{fireAndForget(func(ctx context.Context) {
			if err := env.Database.UpdateUser(ctx, user); err != nil {
				slog.WarnContext(ctx, "failed to save user", "err", err)
			}
		})}

	case SyncTagTranslator:
		translator := state.TagTranslator
		return []flow.Effect[Action]{fireAndForget(func(ctx context.Context) {
			if err := env.Database.UpdateTagTranslator(ctx, translator); err != nil {
				slog.WarnContext(ctx, "failed to save tag translator", "err", err)
			}
		})}

	case SyncAppIconType:
		return []flow.Effect[Action]{
			flow.Task("setting/app-icon-type", func(ctx context.Context) Action {
				return AppIconTypeSynced{Name: env.Device.AlternateIconName()}
			}),
		}

	case AppIconTypeSynced:
		if action.Name != "" {
			state.Setting.AppIconType = action.Name
		}
		return nil

	case LoadUserSettings:
		return []flow.Effect[Action]{
			flow.Task("setting/load", func(ctx context.Context) Action {
				appEnv, err := env.Database.FetchAppEnv(ctx)
				loaded := Loaded{AppEnv: appEnv}
				if value, ok := env.UserDefaults.Value(GALLERY_HOST_KEY); ok {
					loaded.GalleryHost = gallery.GalleryHost(value)
				}
				return OnLoadUserSettings{Result: flow.Capture(loaded, err)}
			}),
		}

	case OnLoadUserSettings:
		if !action.Result.IsOk() {
			state.LoadErr = action.Result.Err
			return nil
		}
		loaded := action.Result.Value
		state.Setting = loaded.AppEnv.Setting
		state.TagTranslator = loaded.AppEnv.TagTranslator
		state.User = loaded.AppEnv.User
		if loaded.GalleryHost == gallery.HOST_EHENTAI || loaded.GalleryHost == gallery.HOST_EXHENTAI {
			state.Setting.GalleryHost = loaded.GalleryHost
		}
		state.Loaded = true
		state.LoadErr = nil

		env.Client.SetGalleryHost(state.Setting.GalleryHost)
		effects := []flow.Effect[Action]{send(SyncAppIconType{})}
		if env.Cookies.ShouldFetchIgneous() {
			effects = append(effects, send(FetchIgneous{}))
		}
		if env.Cookies.DidLogin() {
			effects = append(effects, send(FetchUserInfo{}, FetchGreeting{}))
		}
		if state.Setting.EnablesTagsExtension {
			effects = append(effects, send(FetchTagTranslator{}))
		}
		return effects

	case FetchIgneous:
		if !env.Cookies.DidLogin() {
			return nil
		}
		return []flow.Effect[Action]{
			flow.Task("setting/igneous", func(ctx context.Context) Action {
				ack, err := env.Client.Igneous(ctx)
				return FetchIgneousDone{Result: flow.Capture(ack, err)}
			}),
		}

	case FetchIgneousDone:
		if !action.Result.IsOk() {
			slog.Warn("failed to fetch igneous", "err", action.Result.Err)
		}
		return []flow.Effect[Action]{send(Account{Action: LoadCookies{}})}

	case FetchUserInfo:
		if !env.Cookies.DidLogin() {
			return nil
		}
		uid := env.Cookies.MemberID()
		if uid == "" {
			return nil
		}
		state.UserInfoLoading = true
		state.UserInfoErr = nil
		return []flow.Effect[Action]{
			flow.Task("setting/user-info", func(ctx context.Context) Action {
				user, err := env.Client.UserInfo(ctx, uid)
				return FetchUserInfoDone{Result: flow.Capture(user, err)}
			}),
		}

	case FetchUserInfoDone:
		state.UserInfoLoading = false
		if !action.Result.IsOk() {
			state.UserInfoErr = action.Result.Err
			return nil
		}
		state.User.Merge(action.Result.Value)
		return []flow.Effect[Action]{
			send(SyncUser{}, FetchFunds{}, FetchFavoriteCategories{}, FetchProfileIndex{}),
		}

	case FetchFunds:
		if !env.Cookies.DidLogin() {
			return nil
		}
		state.FundsErr = nil
		return []flow.Effect[Action]{
			flow.Task("setting/funds", func(ctx context.Context) Action {
				funds, err := env.Client.Funds(ctx)
				return FetchFundsDone{Result: flow.Capture(funds, err)}
			}),
		}

	case FetchFundsDone:
		if !action.Result.IsOk() {
			state.FundsErr = action.Result.Err
			return nil
		}
		funds := action.Result.Value
		state.User.Merge(gallery.User{GalleryPoints: funds.GP, Credits: funds.Credits})
		return []flow.Effect[Action]{send(SyncUser{})}

	case FetchFavoriteCategories:
		if !env.Cookies.DidLogin() {
			return nil
		}
		return []flow.Effect[Action]{
			flow.Task("setting/favorite-categories", func(ctx context.Context) Action {
				names, err := env.Client.FavoriteNames(ctx)
				return FetchFavoriteCategoriesDone{Result: flow.Capture(names, err)}
			}),
		}

	case FetchFavoriteCategoriesDone:
		if !action.Result.IsOk() {
			slog.Warn("failed to fetch favorite categories", "err", action.Result.Err)
			return nil
		}
		state.User.FavoriteCategories = action.Result.Value
		return nil

	case FetchProfileIndex:
		if !env.Cookies.DidLogin() {
			return nil
		}
		return []flow.Effect[Action]{
			flow.Task("setting/profile-index", func(ctx context.Context) Action {
				index, found, err := env.Client.ProfileIndex(ctx)
				return FetchProfileIndexDone{Result: flow.Capture(ProfileIndex{Index: index, Found: found}, err)}
			}),
		}

	case FetchProfileIndexDone:
		if !action.Result.IsOk() {
			slog.Error("failed to read settings profiles", "err", action.Result.Err)
			return nil
		}
		profile := action.Result.Value
		if !profile.Found {
			return []flow.Effect[Action]{send(CreateDefaultProfile{})}
		}
		value := strconv.Itoa(profile.Index)
		host := env.Cookies.EHentai()
		if env.Cookies.GetCookie(host, cookies.SELECTED_PROFILE) == value {
			return nil
		}
		return []flow.Effect[Action]{fireAndForget(func(ctx context.Context) {
			env.Cookies.SetOrEditCookie(host, cookies.SELECTED_PROFILE, value)
		})}

	case CreateDefaultProfile:
		return []flow.Effect[Action]{fireAndForget(func(ctx context.Context) {
			if _, err := env.Client.CreateProfile(ctx, parser.ProfileName); err != nil {
				slog.WarnContext(ctx, "failed to create settings profile", "err", err)
			}
		})}

	case FetchGreeting:
		if state.GreetingLoading || !env.Cookies.DidLogin() || !state.Setting.ShowsNewDawnGreeting {
			return nil
		}
		if !gallery.GreetingDue(state.User.Greeting, time.Now()) {
			return nil
		}
		state.GreetingLoading = true
		return []flow.Effect[Action]{
			flow.Task("setting/greeting", func(ctx context.Context) Action {
				greeting, err := env.Client.Greeting(ctx)
				return FetchGreetingDone{Result: flow.Capture(greeting, err)}
			}),
		}

	case FetchGreetingDone:
		state.GreetingLoading = false
		if action.Result.IsOk() {
			state.User.SetGreeting(action.Result.Value)
			return []flow.Effect[Action]{send(SyncUser{})}
		}
		// no greeting on the page, so none is asked for again today
		if action.Result.Err.Kind == apperr.PARSE_FAILED {
			state.User.SetGreeting(gallery.Greeting{UpdateTime: time.Now()})
			return []flow.Effect[Action]{send(SyncUser{})}
		}
		slog.Warn("failed to fetch greeting", "err", action.Result.Err)
		return nil

	case FetchTagTranslator:
		if state.TagTranslatorLoading || state.TagTranslator.HasCustomTranslations || env.Language == "" {
			return nil
		}
		state.TagTranslatorLoading = true
		state.TagTranslatorErr = nil

		var effects []flow.Effect[Action]
		if state.TagTranslator.Language != env.Language {
			state.TagTranslator = gallery.TagTranslator{Language: env.Language}
			effects = append(effects, send(SyncTagTranslator{}))
		}
		language := env.Language
		updatedDate := state.TagTranslator.UpdatedDate
		return append(effects, flow.Task("setting/tag-translator", func(ctx context.Context) Action {
			translator, err := env.Client.TagTranslator(ctx, language, updatedDate)
			return FetchTagTranslatorDone{Result: flow.Capture(translator, err)}
		}))

	case FetchTagTranslatorDone:
		state.TagTranslatorLoading = false
		if !action.Result.IsOk() {
			state.TagTranslatorErr = action.Result.Err
			return nil
		}
		if action.Result.Value == nil {
			return nil
		}
		state.TagTranslator = *action.Result.Value
		return []flow.Effect[Action]{send(SyncTagTranslator{})}

	case Account:
		return reduceAccountSession(state, action.Action, env)

	case SessionPrepared:
		return []flow.Effect[Action]{send(FetchIgneous{}, FetchUserInfo{})}

	case General:
		switch general := action.Action.(type) {
		case TranslationsImported:
			translator := general.Translator
			translator.HasCustomTranslations = true
			if translator.UpdatedDate.IsZero() {
				translator.UpdatedDate = time.Now()
			}
			return []flow.Effect[Action]{send(FetchTagTranslatorDone{Result: flow.Ok(&translator)})}

		case RemoveCustomTranslations:
			state.TagTranslator.HasCustomTranslations = false
			state.TagTranslator.Translations = map[string]string{}
			return []flow.Effect[Action]{send(SyncTagTranslator{})}
		}
	}
	return nil
}

// reduceAccountSession is the part of login and logout that touches more than
// the account state.
func reduceAccountSession(state *State, action AccountAction, env Env) []flow.Effect[Action] {
	switch action.(type) {
	case LoginDone:
		return []flow.Effect[Action]{
			flow.Task("setting/session", func(ctx context.Context) Action {
				env.Cookies.RemoveTransient()
				env.Cookies.SyncHosts()
				return SessionPrepared{}
			}),
		}

	case LogoutConfirmed:
		state.User = gallery.User{}
		return []flow.Effect[Action]{
			send(SyncUser{}),
			fireAndForget(func(ctx context.Context) {
				env.Cookies.ClearAll()
				if err := env.Database.RemoveImageURLs(ctx); err != nil {
					slog.WarnContext(ctx, "failed to remove image urls", "err", err)
				}
				env.Device.ClearImageCache()
			}),
		}
	}
	return nil
}
