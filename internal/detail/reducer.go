package detail

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"ehclient/lib/apperr"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"
	"ehclient/lib/request"
)

type Action interface {
	detailAction()
}

// Open registers a gallery picked from a list.
type Open struct{ Gallery gallery.Gallery }

// FetchReverse looks a gallery up by its detail url and opens it.
type FetchReverse struct{ DetailURL string }
type FetchReverseDone struct{ Result flow.Result[gallery.Gallery] }

type FetchDetail struct{ GID string }
type FetchDetailDone struct {
	GID    string
	Result flow.Result[parser.DetailPage]
}

type FetchArchive struct{ GID string }
type FetchArchiveDone struct {
	GID    string
	Result flow.Result[ArchivePage]
}

// ArchivePage is an archive and the balances shown next to it.
type ArchivePage struct {
	Archive gallery.GalleryArchive
	Funds   *gallery.Funds
}

type FetchArchiveFunds struct{ GID string }
type FetchArchiveFundsDone struct {
	GID    string
	Result flow.Result[*gallery.Funds]
}

type FetchTorrents struct{ GID string }
type FetchTorrentsDone struct {
	GID    string
	Result flow.Result[[]gallery.GalleryTorrent]
}

type FetchComments struct{ GID string }
type FetchCommentsDone struct {
	GID    string
	Result flow.Result[[]gallery.GalleryComment]
}

// FetchContents fetches the image urls of one detail page, Page is zero-based.
type FetchContents struct {
	GID  string
	Page int
}
type FetchContentsDone struct {
	GID    string
	Page   int
	Result flow.Result[[]gallery.GalleryContent]
}

type FetchAlterImages struct{ GID string }
type FetchAlterImagesDone struct {
	GID    string
	Result flow.Result[[]gallery.GalleryAlterData]
}

type AddFavorite struct {
	GID      string
	FavIndex int
}
type DeleteFavorite struct{ GID string }
type FavoriteDone struct {
	GID    string
	Result flow.Result[request.Ack]
}

type Rate struct {
	GID    string
	Rating int
}
type RateDone struct {
	GID    string
	Result flow.Result[request.Ack]
}

type Comment struct {
	GID     string
	Content string
}
type EditComment struct {
	GID       string
	CommentID string
	Content   string
}
type CommentDone struct {
	GID    string
	Result flow.Result[request.Ack]
}

type VoteComment struct {
	GID       string
	CommentID string
	// Vote is 1 or -1, repeating a vote withdraws it.
	Vote int
}
type VoteCommentDone struct {
	GID    string
	Result flow.Result[request.Ack]
}

type SendDownloadCommand struct {
	GID        string
	Resolution gallery.ArchiveResolution
}
type SendDownloadCommandDone struct {
	GID    string
	Result flow.Result[gallery.DownloadCommandResponse]
}
type ResetDownloadCommandResponse struct{ GID string }

// SaveReadingProgress records Page, one-based, as the last page read.
type SaveReadingProgress struct {
	GID  string
	Page int
}
type FetchReadingProgress struct{ GID string }
type FetchReadingProgressDone struct {
	GID    string
	Result flow.Result[int]
}

func (Open) detailAction()                         {}
func (FetchReverse) detailAction()                 {}
func (FetchReverseDone) detailAction()             {}
func (FetchDetail) detailAction()                  {}
func (FetchDetailDone) detailAction()              {}
func (FetchArchive) detailAction()                 {}
func (FetchArchiveDone) detailAction()             {}
func (FetchArchiveFunds) detailAction()            {}
func (FetchArchiveFundsDone) detailAction()        {}
func (FetchTorrents) detailAction()                {}
func (FetchTorrentsDone) detailAction()            {}
func (FetchComments) detailAction()                {}
func (FetchCommentsDone) detailAction()            {}
func (FetchContents) detailAction()                {}
func (FetchContentsDone) detailAction()            {}
func (FetchAlterImages) detailAction()             {}
func (FetchAlterImagesDone) detailAction()         {}
func (AddFavorite) detailAction()                  {}
func (DeleteFavorite) detailAction()               {}
func (FavoriteDone) detailAction()                 {}
func (Rate) detailAction()                         {}
func (RateDone) detailAction()                     {}
func (Comment) detailAction()                      {}
func (EditComment) detailAction()                  {}
func (CommentDone) detailAction()                  {}
func (VoteComment) detailAction()                  {}
func (VoteCommentDone) detailAction()              {}
func (SendDownloadCommand) detailAction()          {}
func (SendDownloadCommandDone) detailAction()      {}
func (ResetDownloadCommandResponse) detailAction() {}
func (SaveReadingProgress) detailAction()          {}
func (FetchReadingProgress) detailAction()         {}
func (FetchReadingProgressDone) detailAction()     {}

func effectID(gid, op string) string {
	return fmt.Sprintf("detail/%s/%s", gid, op)
}

// task runs work under the identity of one operation on one gallery.
func task[T any](gid, op string, work func(ctx context.Context) (T, error), done func(flow.Result[T]) Action) []flow.Effect[Action] {
	return []flow.Effect[Action]{
		flow.Task(effectID(gid, op), func(ctx context.Context) Action {
			value, err := work(ctx)
			return done(flow.Capture(value, err))
		}),
	}
}

var errNoDetail = apperr.Newf(apperr.UNKNOWN, "gallery detail has not been fetched")

func Reducer(state *State, action Action, env Env) []flow.Effect[Action] {
	switch action := action.(type) {
	case Open:
		if _, ok := state.Gallery(action.Gallery.GID); ok {
			state.update(action.Gallery.GID, func(g *Gallery) { g.Gallery = action.Gallery })
			return nil
		}
		state.put(Gallery{Gallery: action.Gallery})
		if env.Progress == nil {
			return nil
		}
		return []flow.Effect[Action]{flow.Send[Action](FetchReadingProgress{GID: action.Gallery.GID})}

	case FetchReverse:
		state.Reversing = true
		state.ReverseErr = nil
		detailURL := action.DetailURL
		return task("reverse", "lookup",
			func(ctx context.Context) (gallery.Gallery, error) {
				return env.Client.GalleryReverse(ctx, detailURL)
			},
			func(r flow.Result[gallery.Gallery]) Action { return FetchReverseDone{Result: r} },
		)

	case FetchReverseDone:
		state.Reversing = false
		if !action.Result.IsOk() {
			state.ReverseErr = action.Result.Err
			return nil
		}
		return []flow.Effect[Action]{flow.Send[Action](Open{Gallery: action.Result.Value})}
	}

	return reduceGallery(state, action, env)
}

// reduceGallery handles the actions addressed to one known gallery, the ones
// for an unknown gid are dropped.
func reduceGallery(state *State, action Action, env Env) []flow.Effect[Action] {
	var effects []flow.Effect[Action]
	apply := func(gid string, fn func(g *Gallery)) {
		if !state.update(gid, fn) {
			slog.Debug("action for unknown gallery", "gid", gid, "action", fmt.Sprintf("%T", action))
		}
	}

	switch action := action.(type) {
	case FetchDetail:
		apply(action.GID, func(g *Gallery) {
			g.DetailLoading = true
			g.DetailErr = nil
			detailURL := g.Gallery.DetailURL
			effects = task(g.Gallery.GID, "detail",
				func(ctx context.Context) (parser.DetailPage, error) {
					return env.Client.GalleryDetail(ctx, detailURL)
				},
				func(r flow.Result[parser.DetailPage]) Action { return FetchDetailDone{GID: action.GID, Result: r} },
			)
		})

	case FetchDetailDone:
		apply(action.GID, func(g *Gallery) {
			g.DetailLoading = false
			if !action.Result.IsOk() {
				g.DetailErr = action.Result.Err
				return
			}
			page := action.Result.Value
			detail := page.Detail
			g.Detail = &detail
			g.APIKey = page.APIKey
			g.APIUID = page.APIUID
		})

	case FetchArchive:
		apply(action.GID, func(g *Gallery) {
			archiveURL := g.ArchiveURL()
			if archiveURL == "" {
				g.ArchiveErr = errNoDetail
				return
			}
			g.ArchiveLoading = true
			g.ArchiveErr = nil
			effects = task(action.GID, "archive",
				func(ctx context.Context) (ArchivePage, error) {
					archive, funds, err := env.Client.GalleryArchive(ctx, archiveURL)
					return ArchivePage{Archive: archive, Funds: funds}, err
				},
				func(r flow.Result[ArchivePage]) Action { return FetchArchiveDone{GID: action.GID, Result: r} },
			)
		})

	case FetchArchiveDone:
		apply(action.GID, func(g *Gallery) {
			g.ArchiveLoading = false
			if !action.Result.IsOk() {
				g.ArchiveErr = action.Result.Err
				return
			}
			archive := action.Result.Value.Archive
			g.Archive = &archive
			if funds := action.Result.Value.Funds; funds != nil {
				g.Funds = funds
			}
		})

	case FetchArchiveFunds:
		apply(action.GID, func(g *Gallery) {
			g.FundsLoading = true
			g.FundsErr = nil
			detailURL := g.Gallery.DetailURL
			effects = task(action.GID, "funds",
				func(ctx context.Context) (*gallery.Funds, error) {
					return env.Client.ArchiveFunds(ctx, detailURL)
				},
				func(r flow.Result[*gallery.Funds]) Action { return FetchArchiveFundsDone{GID: action.GID, Result: r} },
			)
		})

	case FetchArchiveFundsDone:
		apply(action.GID, func(g *Gallery) {
			g.FundsLoading = false
			if !action.Result.IsOk() {
				g.FundsErr = action.Result.Err
				return
			}
			// no archive, nothing to show
			if action.Result.Value != nil {
				g.Funds = action.Result.Value
			}
		})

	case FetchTorrents:
		apply(action.GID, func(g *Gallery) {
			g.TorrentsLoading = true
			g.TorrentsErr = nil
			gid, token := g.Gallery.GID, g.Gallery.Token
			effects = task(action.GID, "torrents",
				func(ctx context.Context) ([]gallery.GalleryTorrent, error) {
					return env.Client.Torrents(ctx, gid, token)
				},
				func(r flow.Result[[]gallery.GalleryTorrent]) Action { return FetchTorrentsDone{GID: action.GID, Result: r} },
			)
		})

	case FetchTorrentsDone:
		apply(action.GID, func(g *Gallery) {
			g.TorrentsLoading = false
			if !action.Result.IsOk() {
				g.TorrentsErr = action.Result.Err
				return
			}
			g.Torrents = action.Result.Value
		})

	case FetchComments:
		apply(action.GID, func(g *Gallery) {
			g.CommentsLoading = true
			g.CommentsErr = nil
			detailURL := g.Gallery.DetailURL
			effects = task(action.GID, "comments",
				func(ctx context.Context) ([]gallery.GalleryComment, error) {
					return env.Client.Comments(ctx, detailURL)
				},
				func(r flow.Result[[]gallery.GalleryComment]) Action { return FetchCommentsDone{GID: action.GID, Result: r} },
			)
		})

	case FetchCommentsDone:
		apply(action.GID, func(g *Gallery) {
			g.CommentsLoading = false
			if !action.Result.IsOk() {
				g.CommentsErr = action.Result.Err
				return
			}
			g.Comments = action.Result.Value
		})

	case FetchContents:
		apply(action.GID, func(g *Gallery) {
			g.setContentsLoading(action.Page, true)
			g.ContentsErr = nil
			detailURL := g.Gallery.DetailURL
			pageCount := g.PageCount()
			page := action.Page
			effects = task(action.GID, fmt.Sprintf("contents/%d", page),
				func(ctx context.Context) ([]gallery.GalleryContent, error) {
					return env.Client.Contents(ctx, detailURL, page, pageCount)
				},
				func(r flow.Result[[]gallery.GalleryContent]) Action {
					return FetchContentsDone{GID: action.GID, Page: page, Result: r}
				},
			)
		})

	case FetchContentsDone:
		apply(action.GID, func(g *Gallery) {
			g.setContentsLoading(action.Page, false)
			if !action.Result.IsOk() {
				g.ContentsErr = action.Result.Err
				return
			}
			contents := action.Result.Value
			g.Contents = mergeContents(g.Contents, contents)
			if env.Images == nil {
				return
			}
			gid := action.GID
			effects = []flow.Effect[Action]{
				flow.FireAndForget[Action](func(ctx context.Context) {
					err := env.Images.SaveImageURLs(ctx, gid, contents)
					if err != nil {
						slog.WarnContext(ctx, "failed to save image urls", "gid", gid, "err", err)
					}
				}),
			}
		})

	case FetchAlterImages:
		apply(action.GID, func(g *Gallery) {
			g.AlterImagesLoading = true
			g.AlterImagesErr = nil
			detailURL := g.Gallery.DetailURL
			effects = task(action.GID, "alter-images",
				func(ctx context.Context) ([]gallery.GalleryAlterData, error) {
					return env.Client.AlterImages(ctx, detailURL)
				},
				func(r flow.Result[[]gallery.GalleryAlterData]) Action {
					return FetchAlterImagesDone{GID: action.GID, Result: r}
				},
			)
		})

	case FetchAlterImagesDone:
		apply(action.GID, func(g *Gallery) {
			g.AlterImagesLoading = false
			if !action.Result.IsOk() {
				g.AlterImagesErr = action.Result.Err
				return
			}
			g.AlterImages = action.Result.Value
		})

	case AddFavorite:
		apply(action.GID, func(g *Gallery) {
			g.FavoriteUpdating = true
			g.FavoriteErr = nil
			gid, token, favIndex := g.Gallery.GID, g.Gallery.Token, action.FavIndex
			effects = task(action.GID, "favorite",
				func(ctx context.Context) (request.Ack, error) {
					return env.Client.AddFavorite(ctx, gid, token, favIndex)
				},
				func(r flow.Result[request.Ack]) Action { return FavoriteDone{GID: action.GID, Result: r} },
			)
		})

	case DeleteFavorite:
		apply(action.GID, func(g *Gallery) {
			g.FavoriteUpdating = true
			g.FavoriteErr = nil
			gid := g.Gallery.GID
			effects = task(action.GID, "favorite",
				func(ctx context.Context) (request.Ack, error) {
					return env.Client.DeleteFavorite(ctx, gid)
				},
				func(r flow.Result[request.Ack]) Action { return FavoriteDone{GID: action.GID, Result: r} },
			)
		})

	case FavoriteDone:
		apply(action.GID, func(g *Gallery) {
			g.FavoriteUpdating = false
			if !action.Result.IsOk() {
				g.FavoriteErr = action.Result.Err
				return
			}
			effects = []flow.Effect[Action]{flow.Send[Action](FetchDetail{GID: action.GID})}
		})

	case Rate:
		apply(action.GID, func(g *Gallery) {
			if g.Detail == nil {
				g.RateErr = errNoDetail
				return
			}
			g.Rating = true
			g.RateErr = nil
			apiuid, apikey, token, rating := g.APIUID, g.APIKey, g.Gallery.Token, action.Rating
			gidText := g.Gallery.GID
			effects = task(action.GID, "rate",
				func(ctx context.Context) (request.Ack, error) {
					gid, err := strconv.Atoi(gidText)
					if err != nil {
						return request.Ack{}, fmt.Errorf("gid %q: %w", gidText, err)
					}
					return env.Client.Rate(ctx, apiuid, apikey, gid, token, rating)
				},
				func(r flow.Result[request.Ack]) Action { return RateDone{GID: action.GID, Result: r} },
			)
		})

	case RateDone:
		apply(action.GID, func(g *Gallery) {
			g.Rating = false
		})
		if !action.Result.IsOk() {
			slog.Warn("failed to rate gallery", "gid", action.GID, "err", action.Result.Err)
		}

	case Comment:
		apply(action.GID, func(g *Gallery) {
			g.Commenting = true
			g.CommentErr = nil
			detailURL, content := g.Gallery.DetailURL, action.Content
			effects = task(action.GID, "comment",
				func(ctx context.Context) (request.Ack, error) {
					return env.Client.Comment(ctx, detailURL, content)
				},
				func(r flow.Result[request.Ack]) Action { return CommentDone{GID: action.GID, Result: r} },
			)
		})

	case EditComment:
		apply(action.GID, func(g *Gallery) {
			g.Commenting = true
			g.CommentErr = nil
			detailURL, commentID, content := g.Gallery.DetailURL, action.CommentID, action.Content
			effects = task(action.GID, "comment",
				func(ctx context.Context) (request.Ack, error) {
					return env.Client.EditComment(ctx, detailURL, commentID, content)
				},
				func(r flow.Result[request.Ack]) Action { return CommentDone{GID: action.GID, Result: r} },
			)
		})

	case CommentDone:
		apply(action.GID, func(g *Gallery) {
			g.Commenting = false
			if !action.Result.IsOk() {
				g.CommentErr = action.Result.Err
				return
			}
			effects = []flow.Effect[Action]{flow.Send[Action](FetchComments{GID: action.GID})}
		})

	case VoteComment:
		apply(action.GID, func(g *Gallery) {
			if g.Detail == nil {
				g.CommentErr = errNoDetail
				return
			}
			g.VotingComment = true
			g.CommentErr = nil
			apiuid, apikey, token := g.APIUID, g.APIKey, g.Gallery.Token
			gidText, commentText, vote := g.Gallery.GID, action.CommentID, action.Vote
			effects = task(action.GID, "vote-comment",
				func(ctx context.Context) (request.Ack, error) {
					gid, err := strconv.Atoi(gidText)
					if err != nil {
						return request.Ack{}, fmt.Errorf("gid %q: %w", gidText, err)
					}
					commentID, err := strconv.Atoi(commentText)
					if err != nil {
						return request.Ack{}, fmt.Errorf("comment id %q: %w", commentText, err)
					}
					return env.Client.VoteComment(ctx, apiuid, apikey, gid, token, commentID, vote)
				},
				func(r flow.Result[request.Ack]) Action { return VoteCommentDone{GID: action.GID, Result: r} },
			)
		})

	case VoteCommentDone:
		apply(action.GID, func(g *Gallery) {
			g.VotingComment = false
			if !action.Result.IsOk() {
				g.CommentErr = action.Result.Err
				return
			}
			effects = []flow.Effect[Action]{flow.Send[Action](FetchComments{GID: action.GID})}
		})

	case SendDownloadCommand:
		apply(action.GID, func(g *Gallery) {
			archiveURL := g.ArchiveURL()
			if archiveURL == "" {
				g.DownloadCommandErr = errNoDetail
				return
			}
			g.SendingDownloadCommand = true
			g.DownloadCommandErr = nil
			g.DownloadCommandResponse = nil
			resolution := action.Resolution
			effects = task(action.GID, "download-command",
				func(ctx context.Context) (gallery.DownloadCommandResponse, error) {
					return env.Client.SendDownloadCommand(ctx, archiveURL, resolution)
				},
				func(r flow.Result[gallery.DownloadCommandResponse]) Action {
					return SendDownloadCommandDone{GID: action.GID, Result: r}
				},
			)
		})

	case SendDownloadCommandDone:
		apply(action.GID, func(g *Gallery) {
			g.SendingDownloadCommand = false
			if !action.Result.IsOk() {
				g.DownloadCommandErr = action.Result.Err
				return
			}
			response := action.Result.Value
			g.DownloadCommandResponse = &response
		})

	case ResetDownloadCommandResponse:
		apply(action.GID, func(g *Gallery) {
			g.DownloadCommandResponse = nil
			g.DownloadCommandErr = nil
		})

	case SaveReadingProgress:
		if action.Page < 1 {
			return nil
		}
		apply(action.GID, func(g *Gallery) {
			g.ReadingProgress = action.Page
			if env.Progress == nil {
				return
			}
			gid, page := action.GID, action.Page
			effects = []flow.Effect[Action]{flow.FireAndForget[Action](func(ctx context.Context) {
				if err := env.Progress.SaveReadingProgress(ctx, gid, page); err != nil {
					slog.WarnContext(ctx, "failed to save reading progress", "gid", gid, "err", err)
				}
			})}
		})

	case FetchReadingProgress:
		if env.Progress == nil {
			return nil
		}
		apply(action.GID, func(g *Gallery) {
			gid := action.GID
			effects = task(gid, "progress",
				func(ctx context.Context) (int, error) {
					return env.Progress.ReadingProgress(ctx, gid)
				},
				func(r flow.Result[int]) Action { return FetchReadingProgressDone{GID: gid, Result: r} },
			)
		})

	case FetchReadingProgressDone:
		if !action.Result.IsOk() {
			slog.Warn("failed to read reading progress", "gid", action.GID, "err", action.Result.Err)
			return nil
		}
		apply(action.GID, func(g *Gallery) {
			g.ReadingProgress = action.Result.Value
		})
	}
	return effects
}
