// Package app composes the feature slices into the root state, action and
// reducer a Store runs.
package app

import (
	"ehclient/internal/associated"
	"ehclient/internal/detail"
	"ehclient/internal/history"
	"ehclient/internal/home"
	"ehclient/internal/listing"
	"ehclient/internal/search"
	"ehclient/internal/setting"
	"ehclient/lib/flow"
)

// Client is the request pipeline as seen by every slice.
type Client interface {
	listing.Fetcher
	detail.Client
	setting.Client
}

type Database interface {
	setting.Database
	detail.ImageStore
	detail.ProgressStore
	history.Store
}

type Environment struct {
	Client       Client
	Database     Database
	UserDefaults setting.UserDefaults
	Cookies      setting.CookieStore
	Device       setting.Device
	Language     string
}

func (e Environment) listing() listing.Env {
	return listing.Env{Fetcher: e.Client}
}

func (e Environment) detail() detail.Env {
	return detail.Env{Client: e.Client, Images: e.Database, Progress: e.Database}
}

func (e Environment) history() history.Env {
	return history.Env{Store: e.Database}
}

func (e Environment) setting() setting.Env {
	return setting.Env{
		Client:       e.Client,
		Database:     e.Database,
		UserDefaults: e.UserDefaults,
		Cookies:      e.Cookies,
		Device:       e.Device,
		Language:     e.Language,
	}
}

type Config struct {
	// MaxAssociatedDepth bounds how many tags can be followed in a row.
	MaxAssociatedDepth int
}

type State struct {
	Home       home.State
	Search     search.State
	Associated associated.State
	Detail     detail.State
	History    history.State
	Setting    setting.State
}

func New(config Config) State {
	return State{
		Home:       home.New(),
		Search:     search.New(),
		Associated: associated.New(config.MaxAssociatedDepth),
		Detail:     detail.New(),
		Setting:    setting.New(),
	}
}

type Action interface {
	appAction()
}

type Home struct{ Action home.Action }
type Search struct{ Action search.Action }
type Associated struct{ Action associated.Action }
type Detail struct{ Action detail.Action }
type History struct{ Action history.Action }
type Setting struct{ Action setting.Action }

func (Home) appAction()       {}
func (Search) appAction()     {}
func (Associated) appAction() {}
func (Detail) appAction()     {}
func (History) appAction()    {}
func (Setting) appAction()    {}

var (
	homeReducer       flow.Reducer[home.State, home.Action, home.Env]                   = home.Reducer
	searchReducer     flow.Reducer[search.State, search.Action, search.Env]             = search.Reducer
	associatedReducer flow.Reducer[associated.State, associated.Action, associated.Env] = associated.Reducer
	detailReducer     flow.Reducer[detail.State, detail.Action, detail.Env]             = detail.Reducer
	historyReducer    flow.Reducer[history.State, history.Action, history.Env]          = history.Reducer
	settingReducer    flow.Reducer[setting.State, setting.Action, setting.Env]          = setting.Reducer
)

var Reducer = flow.Combine(
	flow.Pullback(
		homeReducer,
		func(s *State) *home.State { return &s.Home },
		func(a Action) (home.Action, bool) {
			v, ok := a.(Home)
			return v.Action, ok
		},
		func(a home.Action) Action { return Home{Action: a} },
		Environment.listing,
	),
	flow.Pullback(
		searchReducer,
		func(s *State) *search.State { return &s.Search },
		func(a Action) (search.Action, bool) {
			v, ok := a.(Search)
			return v.Action, ok
		},
		func(a search.Action) Action { return Search{Action: a} },
		Environment.listing,
	),
	flow.Pullback(
		associatedReducer,
		func(s *State) *associated.State { return &s.Associated },
		func(a Action) (associated.Action, bool) {
			v, ok := a.(Associated)
			return v.Action, ok
		},
		func(a associated.Action) Action { return Associated{Action: a} },
		Environment.listing,
	),
	flow.Pullback(
		detailReducer,
		func(s *State) *detail.State { return &s.Detail },
		func(a Action) (detail.Action, bool) {
			v, ok := a.(Detail)
			return v.Action, ok
		},
		func(a detail.Action) Action { return Detail{Action: a} },
		Environment.detail,
	),
	flow.Pullback(
		historyReducer,
		func(s *State) *history.State { return &s.History },
		func(a Action) (history.Action, bool) {
			v, ok := a.(History)
			return v.Action, ok
		},
		func(a history.Action) Action { return History{Action: a} },
		Environment.history,
	),
	flow.Pullback(
		settingReducer,
		func(s *State) *setting.State { return &s.Setting },
		func(a Action) (setting.Action, bool) {
			v, ok := a.(Setting)
			return v.Action, ok
		},
		func(a setting.Action) Action { return Setting{Action: a} },
		Environment.setting,
	),
	reduceApp,
)

// reduceApp handles what spans slices, it runs after the slices have seen the
// action.
func reduceApp(state *State, action Action, env Environment) []flow.Effect[Action] {
	switch action := action.(type) {
	case Search:
		switch action.Action.(type) {
		case search.SetKeyword, search.FetchGalleries, search.RemoveHistoryKeyword:
			state.Search.Suggestions = search.Suggest(state.Search.Keyword, state.Search.History, state.Setting.TagTranslator)
		}

	case Detail:
		switch a := action.Action.(type) {
		case detail.Open:
			return []flow.Effect[Action]{flow.Send[Action](History{Action: history.UpdateItem{Gallery: a.Gallery}})}
		case detail.SaveReadingProgress:
			if a.Page < 1 {
				return nil
			}
			return []flow.Effect[Action]{flow.Send[Action](History{Action: history.UpdateProgress{GID: a.GID, Page: a.Page}})}
		}

	case Setting:
		switch a := action.Action.(type) {
		case setting.Account:
			if _, ok := a.Action.(setting.LogoutConfirmed); ok {
				return clearSession(state)
			}
		case setting.SetGalleryHost:
			return clearSession(state)
		}
	}
	return nil
}

// clearSession drops everything fetched under the previous session or host.
func clearSession(state *State) []flow.Effect[Action] {
	var effects []flow.Effect[Action]
	lists := append(state.Home.Lists(), state.Search.List)
	for _, level := range state.Associated.Levels {
		lists = append(lists, level.List)
	}
	for _, list := range lists {
		effects = append(effects, flow.Cancel[Action](list.EffectID()))
	}

	state.Search.List.Reset()
	state.Associated = associated.New(state.Associated.MaxDepth)
	state.Detail = detail.New()
	return append(effects, flow.Send[Action](Home{Action: home.ClearCachedLists{}}))
}
