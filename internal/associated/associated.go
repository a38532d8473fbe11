// Package associated is the "search by tag" slice. Every tag followed from a
// result list opens a deeper level, down to MaxDepth.
package associated

import (
	"fmt"

	"ehclient/internal/listing"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/request"
)

const DEFAULT_MAX_DEPTH = 10

type Level struct {
	Keyword gallery.AssociatedKeyword
	List    listing.State
}

type State struct {
	MaxDepth int
	Levels   []Level
}

func New(maxDepth int) State {
	if maxDepth <= 0 {
		maxDepth = DEFAULT_MAX_DEPTH
	}
	return State{MaxDepth: maxDepth}
}

func listID(depth int) string {
	return fmt.Sprintf("associated/%d", depth)
}

// Level returns the level at depth, ok is false when it is not open.
func (s *State) Level(depth int) (*Level, bool) {
	if depth < 0 || depth >= len(s.Levels) {
		return nil, false
	}
	return &s.Levels[depth], true
}

type Action interface {
	associatedAction()
}

// FetchGalleries opens keyword at depth, closing anything deeper. Depth can
// be at most the number of open levels.
type FetchGalleries struct {
	Depth   int
	Keyword gallery.AssociatedKeyword
}

type FetchMoreGalleries struct{ Depth int }

// Pop closes depth and everything deeper.
type Pop struct{ Depth int }

// List forwards to the list of one level.
type List struct {
	Depth  int
	Action listing.Action
}

func (FetchGalleries) associatedAction()     {}
func (FetchMoreGalleries) associatedAction() {}
func (Pop) associatedAction()                {}
func (List) associatedAction()               {}

type Env = listing.Env

func Reducer(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case FetchGalleries:
		if action.Depth < 0 || action.Depth >= state.MaxDepth || action.Depth > len(state.Levels) {
			return nil
		}
		effects := closeFrom(state, action.Depth)
		state.Levels = append(state.Levels, Level{
			Keyword: action.Keyword,
			List:    listing.New(listID(action.Depth), request.Associated(action.Keyword)),
		})
		return append(effects, forward(state, action.Depth, listing.FetchGalleries{}, env)...)

	case FetchMoreGalleries:
		return forward(state, action.Depth, listing.FetchMoreGalleries{}, env)

	case Pop:
		if action.Depth < 0 {
			return nil
		}
		return closeFrom(state, action.Depth)

	case List:
		return forward(state, action.Depth, action.Action, env)
	}
	return nil
}

func forward(state *State, depth int, action listing.Action, env Env) []flow.Effect[Action] {
	level, ok := state.Level(depth)
	if !ok {
		return nil
	}
	return flow.MapAll(listing.Reducer(&level.List, action, env), func(a listing.Action) Action {
		return List{Depth: depth, Action: a}
	})
}

// closeFrom drops the levels from depth on and cancels their fetches.
func closeFrom(state *State, depth int) []flow.Effect[Action] {
	if depth >= len(state.Levels) {
		return nil
	}
	var effects []flow.Effect[Action]
	for d := depth; d < len(state.Levels); d++ {
		effects = append(effects, flow.Cancel[Action](state.Levels[d].List.EffectID()))
	}
	state.Levels = append([]Level(nil), state.Levels[:depth]...)
	return effects
}
