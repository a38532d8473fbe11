// Package detail is the gallery detail slice. Galleries are keyed by gid and
// every fetch or mutation is tracked per gallery.
package detail

import (
	"context"
	"maps"
	"slices"

	"ehclient/lib/apperr"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"
	"ehclient/lib/request"
)

type Client interface {
	GalleryReverse(ctx context.Context, detailURL string) (gallery.Gallery, error)
	GalleryDetail(ctx context.Context, detailURL string) (parser.DetailPage, error)
	GalleryArchive(ctx context.Context, archiveURL string) (gallery.GalleryArchive, *gallery.Funds, error)
	ArchiveFunds(ctx context.Context, detailURL string) (*gallery.Funds, error)
	Torrents(ctx context.Context, gid, token string) ([]gallery.GalleryTorrent, error)
	Comments(ctx context.Context, detailURL string) ([]gallery.GalleryComment, error)
	Contents(ctx context.Context, detailURL string, pageNum, pageCount int) ([]gallery.GalleryContent, error)
	AlterImages(ctx context.Context, detailURL string) ([]gallery.GalleryAlterData, error)

	AddFavorite(ctx context.Context, gid, token string, favIndex int) (request.Ack, error)
	DeleteFavorite(ctx context.Context, gid string) (request.Ack, error)
	Rate(ctx context.Context, apiuid int, apikey gallery.APIKey, gid int, token string, rating int) (request.Ack, error)
	Comment(ctx context.Context, detailURL, content string) (request.Ack, error)
	EditComment(ctx context.Context, detailURL, commentID, content string) (request.Ack, error)
	VoteComment(ctx context.Context, apiuid int, apikey gallery.APIKey, gid int, token string, commentID, vote int) (request.Ack, error)
	SendDownloadCommand(ctx context.Context, archiveURL string, resolution gallery.ArchiveResolution) (gallery.DownloadCommandResponse, error)
}

type ImageStore interface {
	SaveImageURLs(ctx context.Context, gid string, contents []gallery.GalleryContent) error
}

type ProgressStore interface {
	SaveReadingProgress(ctx context.Context, gid string, page int) error
	ReadingProgress(ctx context.Context, gid string) (int, error)
}

type Env struct {
	Client Client
	Images ImageStore
	// Progress is optional, reading progress only lives in state without it.
	Progress ProgressStore
}

// Gallery is everything known about one gallery.
type Gallery struct {
	Gallery gallery.Gallery

	Detail      *gallery.GalleryDetail
	APIKey      gallery.APIKey
	APIUID      int
	Archive     *gallery.GalleryArchive
	Funds       *gallery.Funds
	Torrents    []gallery.GalleryTorrent
	Comments    []gallery.GalleryComment
	AlterImages []gallery.GalleryAlterData
	// Contents is ordered by tag and holds every page fetched so far.
	Contents                []gallery.GalleryContent
	DownloadCommandResponse *gallery.DownloadCommandResponse
	// ReadingProgress is the last page read, 0 when none was.
	ReadingProgress int

	DetailLoading          bool
	ArchiveLoading         bool
	FundsLoading           bool
	TorrentsLoading        bool
	CommentsLoading        bool
	AlterImagesLoading     bool
	// ContentsLoading lists the pages being fetched.
	ContentsLoading        []int
	FavoriteUpdating       bool
	Rating                 bool
	Commenting             bool
	VotingComment          bool
	SendingDownloadCommand bool

	DetailErr          *apperr.Error
	ArchiveErr         *apperr.Error
	FundsErr           *apperr.Error
	TorrentsErr        *apperr.Error
	CommentsErr        *apperr.Error
	AlterImagesErr     *apperr.Error
	ContentsErr        *apperr.Error
	FavoriteErr        *apperr.Error
	CommentErr         *apperr.Error
	DownloadCommandErr *apperr.Error
	// RateErr is only set when a rating cannot be sent, a failed rating is
	// logged and leaves the gallery as it was.
	RateErr *apperr.Error
}

// PageCount prefers the count of the detail page over the list entry.
func (g Gallery) PageCount() int {
	if g.Detail != nil && g.Detail.PageCount > 0 {
		return g.Detail.PageCount
	}
	return g.Gallery.PageCount
}

func (g Gallery) ArchiveURL() string {
	if g.Detail == nil {
		return ""
	}
	return g.Detail.ArchiveURL
}

// State is replaced copy on write, a snapshot never changes under its reader.
type State struct {
	// Reversing is set while a gallery is looked up by its detail url.
	Reversing  bool
	ReverseErr *apperr.Error

	galleries map[string]Gallery
}

func New() State {
	return State{galleries: map[string]Gallery{}}
}

func (s State) Gallery(gid string) (Gallery, bool) {
	g, ok := s.galleries[gid]
	return g, ok
}

// GIDs lists the known galleries in gid order.
func (s State) GIDs() []string {
	gids := make([]string, 0, len(s.galleries))
	for gid := range s.galleries {
		gids = append(gids, gid)
	}
	slices.Sort(gids)
	return gids
}

func (s *State) put(g Gallery) {
	galleries := maps.Clone(s.galleries)
	if galleries == nil {
		galleries = map[string]Gallery{}
	}
	galleries[g.Gallery.GID] = g
	s.galleries = galleries
}

// update applies fn to a copy of the gallery, false when gid is unknown.
func (s *State) update(gid string, fn func(g *Gallery)) bool {
	g, ok := s.galleries[gid]
	if !ok {
		return false
	}
	fn(&g)
	s.put(g)
	return true
}

func (g Gallery) LoadingContents(page int) bool {
	return slices.Contains(g.ContentsLoading, page)
}

func (g *Gallery) setContentsLoading(page int, loading bool) {
	pages := slices.DeleteFunc(slices.Clone(g.ContentsLoading), func(p int) bool {
		return p == page
	})
	if loading {
		pages = append(pages, page)
	}
	g.ContentsLoading = pages
}

// mergeContents replaces pages by tag and keeps the result ordered.
func mergeContents(existing, incoming []gallery.GalleryContent) []gallery.GalleryContent {
	byTag := make(map[int]gallery.GalleryContent, len(existing)+len(incoming))
	for _, c := range existing {
		byTag[c.Tag] = c
	}
	for _, c := range incoming {
		byTag[c.Tag] = c
	}
	out := make([]gallery.GalleryContent, 0, len(byTag))
	for _, c := range byTag {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b gallery.GalleryContent) int {
		return a.Tag - b.Tag
	})
	return out
}
