package request

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"ehclient/lib/apperr"
	"ehclient/lib/cursor"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"

	"go.opentelemetry.io/otel/attribute"
)

type SourceKind int

const (
	SOURCE_FRONTPAGE SourceKind = iota
	SOURCE_POPULAR
	SOURCE_WATCHED
	SOURCE_FAVORITES
	SOURCE_SEARCH
	SOURCE_ASSOCIATED
)

func (k SourceKind) String() string {
	switch k {
	case SOURCE_FRONTPAGE:
		return "frontpage"
	case SOURCE_POPULAR:
		return "popular"
	case SOURCE_WATCHED:
		return "watched"
	case SOURCE_FAVORITES:
		return "favorites"
	case SOURCE_SEARCH:
		return "search"
	case SOURCE_ASSOCIATED:
		return "associated"
	default:
		return "unknown"
	}
}

// Source identifies one list of galleries.
type Source struct {
	Kind SourceKind
	// FavIndex selects a favorites category, -1 lists all of them.
	FavIndex   int
	Keyword    string
	Filter     gallery.Filter
	Associated gallery.AssociatedKeyword
}

func Frontpage() Source { return Source{Kind: SOURCE_FRONTPAGE} }
func Popular() Source   { return Source{Kind: SOURCE_POPULAR} }
func Watched() Source   { return Source{Kind: SOURCE_WATCHED} }

func Favorites(index int) Source {
	return Source{Kind: SOURCE_FAVORITES, FavIndex: index}
}

func Search(keyword string, filter gallery.Filter) Source {
	return Source{Kind: SOURCE_SEARCH, Keyword: keyword, Filter: filter}
}

func Associated(keyword gallery.AssociatedKeyword) Source {
	return Source{Kind: SOURCE_ASSOCIATED, Associated: keyword}
}

// Key is a stable identity for the list, used to key in-flight fetches.
func (s Source) Key() string {
	switch s.Kind {
	case SOURCE_FAVORITES:
		return fmt.Sprintf("favorites/%d", s.FavIndex)
	default:
		return s.Kind.String()
	}
}

func (s Source) endpoint(base string) (string, url.Values) {
	query := url.Values{}
	switch s.Kind {
	case SOURCE_POPULAR:
		return base + "/popular", query
	case SOURCE_WATCHED:
		return base + "/watched", query
	case SOURCE_FAVORITES:
		if s.FavIndex >= 0 {
			query.Set("favcat", strconv.Itoa(s.FavIndex))
		}
		return base + "/favorites.php", query
	case SOURCE_SEARCH:
		query.Set("f_search", s.Keyword)
		s.Filter.Encode(query)
		return base + "/", query
	case SOURCE_ASSOCIATED:
		query.Set("f_search", s.Associated.Query())
		return base + "/", query
	default:
		return base + "/", query
	}
}

// Page is one fetched page of a list together with the cursor to continue
// from.
type Page struct {
	Items  []gallery.Gallery
	Cursor cursor.Cursor
}

// FetchList fetches the first page of source.
func (c *Client) FetchList(ctx context.Context, source Source) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:FetchList")
	defer span.End()
	span.SetAttributes(attribute.String("source", source.Key()))

	endpoint, query := source.endpoint(c.baseURL())
	doc, err := c.fetchDocument(ctx, endpoint, query)
	if err != nil {
		return Page{}, fail(span, err, "failed to fetch")
	}
	pageNumber, items, err := parser.ListItems(doc)
	if err != nil {
		return Page{}, fail(span, err, "failed to parse list")
	}

	return Page{
		Items:  items,
		Cursor: cursor.First(pageNumber, items),
	}, nil
}

// FetchMoreList fetches the page after cur. listLen is the length of the list
// cur was produced for, a next fetch for an empty list is rejected.
func (c *Client) FetchMoreList(ctx context.Context, source Source, cur cursor.Cursor, listLen int) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:FetchMoreList")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", source.Key()),
		attribute.Int("page", cur.NextPage()),
	)

	if source.Kind == SOURCE_POPULAR {
		return Page{}, fail(span, apperr.Newf(apperr.NO_MORE_PAGES, "popular has a single page"), "invalid request")
	}
	err := cur.Validate(listLen)
	if err != nil {
		kind := apperr.INVALID_CURSOR
		if errors.Is(err, cursor.ErrNoMorePages) {
			kind = apperr.NO_MORE_PAGES
		}
		return Page{}, fail(span, apperr.New(kind, err), "invalid cursor")
	}

	endpoint, query := source.endpoint(c.baseURL())
	query.Set("page", strconv.Itoa(cur.NextPage()))
	query.Set("from", cur.LastID)

	doc, err := c.fetchDocument(ctx, endpoint, query)
	if err != nil {
		return Page{}, fail(span, err, "failed to fetch")
	}
	pageNumber, items, err := parser.ListItems(doc)
	if err != nil {
		return Page{}, fail(span, err, "failed to parse list")
	}

	return Page{
		Items:  items,
		Cursor: cur.Advance(pageNumber, items),
	}, nil
}
