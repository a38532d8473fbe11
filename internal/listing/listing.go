// Package listing is the reducer shared by every paginated list of
// galleries: the home lists, search results, favorites and associated
// keyword searches.
package listing

import (
	"context"

	"ehclient/lib/apperr"
	"ehclient/lib/cursor"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/request"
)

type Fetcher interface {
	FetchList(ctx context.Context, source request.Source) (request.Page, error)
	FetchMoreList(ctx context.Context, source request.Source, cur cursor.Cursor, listLen int) (request.Page, error)
}

type Env struct {
	Fetcher Fetcher
}

type State struct {
	// ID keys the fetch effects of this list, a new fetch supersedes the one
	// in flight.
	ID     string
	Source request.Source

	Galleries     []gallery.Gallery
	Cursor        cursor.Cursor
	Loading       bool
	FooterLoading bool
	// Err is the failure of the last first-page fetch, FooterErr of the last
	// next-page fetch.
	Err       *apperr.Error
	FooterErr *apperr.Error
}

func New(id string, source request.Source) State {
	return State{ID: id, Source: source}
}

// EffectID keys the fetches of the list.
func (s State) EffectID() string {
	if s.ID != "" {
		return s.ID + "/list"
	}
	return s.Source.Key() + "/list"
}

// HasMore reports whether a next page can be requested.
func (s State) HasMore() bool {
	return len(s.Galleries) > 0 && s.Cursor.Validate(len(s.Galleries)) == nil
}

type Action interface {
	listingAction()
}

type FetchGalleries struct{}

type FetchGalleriesDone struct {
	Result flow.Result[request.Page]
}

type FetchMoreGalleries struct{}

type FetchMoreGalleriesDone struct {
	Result flow.Result[request.Page]
}

func (FetchGalleries) listingAction()         {}
func (FetchGalleriesDone) listingAction()     {}
func (FetchMoreGalleries) listingAction()     {}
func (FetchMoreGalleriesDone) listingAction() {}

func Reducer(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case FetchGalleries:
		state.Loading = true
		state.FooterLoading = false
		state.Err = nil
		source := state.Source
		return []flow.Effect[Action]{
			flow.Task(state.EffectID(), func(ctx context.Context) Action {
				page, err := env.Fetcher.FetchList(ctx, source)
				return FetchGalleriesDone{Result: flow.Capture(page, err)}
			}),
		}

	case FetchGalleriesDone:
		state.Loading = false
		if !action.Result.IsOk() {
			state.Err = action.Result.Err
			return nil
		}
		page := action.Result.Value
		state.Galleries = page.Items
		state.Cursor = page.Cursor
		state.FooterErr = nil
		return nil

	case FetchMoreGalleries:
		if state.Loading || state.FooterLoading {
			return nil
		}
		state.FooterLoading = true
		state.FooterErr = nil
		source := state.Source
		cur := state.Cursor
		listLen := len(state.Galleries)
		return []flow.Effect[Action]{
			flow.Task(state.EffectID(), func(ctx context.Context) Action {
				page, err := env.Fetcher.FetchMoreList(ctx, source, cur, listLen)
				return FetchMoreGalleriesDone{Result: flow.Capture(page, err)}
			}),
		}

	case FetchMoreGalleriesDone:
		state.FooterLoading = false
		if !action.Result.IsOk() {
			state.FooterErr = action.Result.Err
			return nil
		}
		page := action.Result.Value
		state.Galleries = appendNew(state.Galleries, page.Items)
		state.Cursor = page.Cursor
		return nil
	}
	return nil
}

// appendNew appends the galleries not already listed, a list shifts while
// it is paged through.
func appendNew(existing, incoming []gallery.Gallery) []gallery.Gallery {
	seen := make(map[string]struct{}, len(existing))
	for _, g := range existing {
		seen[g.GID] = struct{}{}
	}
	out := existing
	for _, g := range incoming {
		if _, ok := seen[g.GID]; ok {
			continue
		}
		seen[g.GID] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Reset discards the list and its cursor, keeping its identity.
func (s *State) Reset() {
	*s = New(s.ID, s.Source)
}
