// Package history is the list of galleries the user opened, most recent
// first, with how far each was read.
package history

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
)

type Store interface {
	UpdateHistoryItem(ctx context.Context, g gallery.Gallery, openedAt time.Time) error
	HistoryItems(ctx context.Context) ([]gallery.HistoryItem, error)
	ClearHistoryItems(ctx context.Context) error
}

type Env struct {
	Store Store
}

type State struct {
	Items   []gallery.HistoryItem
	Loading bool
	Err     *apperr.Error
}

type Action interface {
	historyAction()
}

// UpdateItem moves the gallery to the front as opened now.
type UpdateItem struct{ Gallery gallery.Gallery }

type FetchItems struct{}
type FetchItemsDone struct {
	Result flow.Result[[]gallery.HistoryItem]
}

// UpdateProgress mirrors a page read in a listed gallery, persisting it is
// left to the detail slice.
type UpdateProgress struct {
	GID  string
	Page int
}

type ClearItems struct{}

func (UpdateItem) historyAction()     {}
func (UpdateProgress) historyAction() {}
func (FetchItems) historyAction()     {}
func (FetchItemsDone) historyAction() {}
func (ClearItems) historyAction()     {}

func Reducer(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case UpdateItem:
		item := gallery.HistoryItem{Gallery: action.Gallery, LastOpenTime: time.Now()}
		items := []gallery.HistoryItem{item}
		for _, existing := range state.Items {
			if existing.Gallery.GID == item.Gallery.GID {
				items[0].ReadingProgress = existing.ReadingProgress
				continue
			}
			items = append(items, existing)
		}
		state.Items = items
		return []flow.Effect[Action]{
			flow.FireAndForget[Action](func(ctx context.Context) {
				if err := env.Store.UpdateHistoryItem(ctx, item.Gallery, item.LastOpenTime); err != nil {
					slog.WarnContext(ctx, "failed to update history", "gid", item.Gallery.GID, "err", err)
				}
			}),
		}

	case UpdateProgress:
		i := slices.IndexFunc(state.Items, func(item gallery.HistoryItem) bool {
			return item.Gallery.GID == action.GID
		})
		if i < 0 {
			return nil
		}
		items := slices.Clone(state.Items)
		items[i].ReadingProgress = action.Page
		state.Items = items
		return nil

	case FetchItems:
		state.Loading = true
		state.Err = nil
		return []flow.Effect[Action]{
			flow.Task("history/items", func(ctx context.Context) Action {
				items, err := env.Store.HistoryItems(ctx)
				return FetchItemsDone{Result: flow.Capture(items, err)}
			}),
		}

	case FetchItemsDone:
		state.Loading = false
		if !action.Result.IsOk() {
			state.Err = action.Result.Err
			return nil
		}
		state.Items = slices.Clone(action.Result.Value)
		return nil

	case ClearItems:
		state.Items = nil
		return []flow.Effect[Action]{
			flow.Cancel[Action]("history/items"),
			flow.FireAndForget[Action](func(ctx context.Context) {
				if err := env.Store.ClearHistoryItems(ctx); err != nil {
					slog.WarnContext(ctx, "failed to clear history", "err", err)
				}
			}),
		}
	}
	return nil
}
