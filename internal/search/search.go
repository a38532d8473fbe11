// Package search is the keyword search slice: the query being edited, its
// results, the keyword history and suggestions.
package search

import (
	"slices"
	"strings"

	"ehclient/internal/listing"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/request"
)

const (
	MAX_HISTORY     = 20
	MAX_SUGGESTIONS = 10
)

type State struct {
	Keyword string
	Filter  gallery.Filter
	// History is most recent first, without duplicates.
	History     []string
	Suggestions []string
	List        listing.State
}

func New() State {
	return State{List: listing.New("search", request.Search("", gallery.Filter{}))}
}

type Action interface {
	searchAction()
}

type SetKeyword struct{ Keyword string }
type SetFilter struct{ Filter gallery.Filter }

// FetchGalleries searches for Keyword, the one being edited when empty.
type FetchGalleries struct{ Keyword string }

type RemoveHistoryKeyword struct{ Keyword string }
type ClearHistory struct{}

// List forwards to the result list, used for next pages and completions.
type List struct{ Action listing.Action }

func (SetKeyword) searchAction()           {}
func (SetFilter) searchAction()            {}
func (FetchGalleries) searchAction()       {}
func (RemoveHistoryKeyword) searchAction() {}
func (ClearHistory) searchAction()         {}
func (List) searchAction()                 {}

type Env = listing.Env

func Reducer(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case SetKeyword:
		state.Keyword = action.Keyword
		return nil

	case SetFilter:
		state.Filter = action.Filter
		return nil

	case FetchGalleries:
		keyword := strings.TrimSpace(action.Keyword)
		if keyword == "" {
			keyword = strings.TrimSpace(state.Keyword)
		}
		state.Keyword = keyword
		state.History = remember(state.History, keyword)
		// a new search never pages with the cursor of the previous one
		state.List.Source = request.Search(keyword, state.Filter)
		state.List.Reset()
		return forward(&state.List, listing.FetchGalleries{}, env)

	case RemoveHistoryKeyword:
		state.History = slices.DeleteFunc(state.History, func(k string) bool {
			return k == action.Keyword
		})
		return nil

	case ClearHistory:
		state.History = nil
		return nil

	case List:
		return forward(&state.List, action.Action, env)
	}
	return nil
}

func forward(list *listing.State, action listing.Action, env Env) []flow.Effect[Action] {
	return flow.MapAll(listing.Reducer(list, action, env), func(a listing.Action) Action {
		return List{Action: a}
	})
}

// remember moves keyword to the front of history.
func remember(history []string, keyword string) []string {
	if keyword == "" {
		return history
	}
	out := make([]string, 0, len(history)+1)
	out = append(out, keyword)
	for _, k := range history {
		if k != keyword && len(out) < MAX_HISTORY {
			out = append(out, k)
		}
	}
	return out
}

// Suggest completes the last word of keyword, from history first and then
// from the known tags.
func Suggest(keyword string, history []string, translator gallery.TagTranslator) []string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	lower := strings.ToLower(keyword)

	var out []string
	seen := map[string]struct{}{}
	add := func(s string) {
		if _, ok := seen[s]; ok || len(out) >= MAX_SUGGESTIONS {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, k := range history {
		if k != keyword && strings.HasPrefix(strings.ToLower(k), lower) {
			add(k)
		}
	}

	words := strings.Fields(keyword)
	last := words[len(words)-1]
	for _, tag := range translator.Lookup(last, MAX_SUGGESTIONS) {
		add(tag)
	}
	return out
}
