// Package home holds the lists shown without a query: frontpage, popular,
// watched and the favorites categories.
package home

import (
	"fmt"

	"ehclient/internal/listing"
	"ehclient/lib/flow"
	"ehclient/lib/request"
)

// FAVORITES_COUNT is the number of favorites categories, -1 selects all of
// them.
const FAVORITES_COUNT = 10

type State struct {
	Frontpage listing.State
	Popular   listing.State
	Watched   listing.State
	// favorites[i+1] is the list of category i, favorites[0] all categories.
	favorites      [FAVORITES_COUNT + 1]listing.State
	FavoritesIndex int
}

func New() State {
	s := State{
		Frontpage:      listing.New("home/frontpage", request.Frontpage()),
		Popular:        listing.New("home/popular", request.Popular()),
		Watched:        listing.New("home/watched", request.Watched()),
		FavoritesIndex: -1,
	}
	for i := -1; i < FAVORITES_COUNT; i++ {
		s.favorites[i+1] = listing.New(fmt.Sprintf("home/favorites/%d", i), request.Favorites(i))
	}
	return s
}

func validFavoritesIndex(index int) bool {
	return index >= -1 && index < FAVORITES_COUNT
}

// Favorites returns the list of a favorites category, ok is false for an
// index out of range.
func (s *State) Favorites(index int) (*listing.State, bool) {
	if !validFavoritesIndex(index) {
		return nil, false
	}
	return &s.favorites[index+1], true
}

// CurrentFavorites is the list of the selected favorites category.
func (s State) CurrentFavorites() listing.State {
	list, _ := s.Favorites(s.FavoritesIndex)
	return *list
}

// Lists returns every list, favorites categories included.
func (s State) Lists() []listing.State {
	lists := []listing.State{s.Frontpage, s.Popular, s.Watched}
	return append(lists, s.favorites[:]...)
}

type Action interface {
	homeAction()
}

type Frontpage struct{ Action listing.Action }
type Popular struct{ Action listing.Action }
type Watched struct{ Action listing.Action }

type Favorites struct {
	Index  int
	Action listing.Action
}

type SetFavoritesIndex struct{ Index int }

// ClearCachedLists drops every list, used when the session changes.
type ClearCachedLists struct{}

func (Frontpage) homeAction()         {}
func (Popular) homeAction()           {}
func (Watched) homeAction()           {}
func (Favorites) homeAction()         {}
func (SetFavoritesIndex) homeAction() {}
func (ClearCachedLists) homeAction()  {}

type Env = listing.Env

var listReducer flow.Reducer[listing.State, listing.Action, listing.Env] = listing.Reducer

func sameEnv(env Env) listing.Env { return env }

var Reducer = flow.Combine(
	flow.Pullback(
		listReducer,
		func(s *State) *listing.State { return &s.Frontpage },
		func(a Action) (listing.Action, bool) {
			v, ok := a.(Frontpage)
			return v.Action, ok
		},
		func(a listing.Action) Action { return Frontpage{Action: a} },
		sameEnv,
	),
	flow.Pullback(
		listReducer,
		func(s *State) *listing.State { return &s.Popular },
		func(a Action) (listing.Action, bool) {
			v, ok := a.(Popular)
			return v.Action, ok
		},
		func(a listing.Action) Action { return Popular{Action: a} },
		sameEnv,
	),
	flow.Pullback(
		listReducer,
		func(s *State) *listing.State { return &s.Watched },
		func(a Action) (listing.Action, bool) {
			v, ok := a.(Watched)
			return v.Action, ok
		},
		func(a listing.Action) Action { return Watched{Action: a} },
		sameEnv,
	),
	reduceHome,
)

func reduceHome(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case Favorites:
		list, ok := state.Favorites(action.Index)
		if !ok {
			return nil
		}
		index := action.Index
		return flow.MapAll(listing.Reducer(list, action.Action, env), func(a listing.Action) Action {
			return Favorites{Index: index, Action: a}
		})

	case SetFavoritesIndex:
		list, ok := state.Favorites(action.Index)
		if !ok {
			return nil
		}
		state.FavoritesIndex = action.Index
		if len(list.Galleries) > 0 || list.Loading {
			return nil
		}
		return []flow.Effect[Action]{
			flow.Send[Action](Favorites{Index: action.Index, Action: listing.FetchGalleries{}}),
		}

	case ClearCachedLists:
		state.Frontpage.Reset()
		state.Popular.Reset()
		state.Watched.Reset()
		for i := range state.favorites {
			state.favorites[i].Reset()
		}
		return nil
	}
	return nil
}
