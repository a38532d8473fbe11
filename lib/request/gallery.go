package request

import (
	"context"
	"net/url"
	"slices"
	"strconv"

	"ehclient/lib/apperr"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// GalleryReverse builds the listing entry of the gallery at detailURL.
func (c *Client) GalleryReverse(ctx context.Context, detailURL string) (gallery.Gallery, error) {
	ctx, span := tracer.Start(ctx, "client:GalleryReverse")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL))

	gid, token, err := gallery.IdentityFromURL(detailURL)
	if err != nil {
		return gallery.Gallery{}, fail(span, apperr.New(apperr.PARSE_FAILED, err), "bad detail url")
	}
	doc, err := c.fetchDocument(ctx, detailURL, nil)
	if err != nil {
		return gallery.Gallery{}, fail(span, err, "failed to fetch")
	}
	page, err := parser.GalleryDetail(doc)
	if err != nil {
		return gallery.Gallery{}, fail(span, err, "failed to parse detail")
	}
	return gallery.GalleryReverse(page.Detail, gid, token, detailURL), nil
}

func (c *Client) GalleryDetail(ctx context.Context, detailURL string) (parser.DetailPage, error) {
	ctx, span := tracer.Start(ctx, "client:GalleryDetail")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL))

	// hc=1 expands every comment on the page
	doc, err := c.fetchDocument(ctx, detailURL, url.Values{"hc": {"1"}})
	if err != nil {
		return parser.DetailPage{}, fail(span, err, "failed to fetch")
	}
	page, err := parser.GalleryDetail(doc)
	if err != nil {
		return parser.DetailPage{}, fail(span, err, "failed to parse detail")
	}
	return page, nil
}

// GalleryArchive fetches the archiver page, funds are nil when the page
// doesn't show them.
func (c *Client) GalleryArchive(ctx context.Context, archiveURL string) (gallery.GalleryArchive, *gallery.Funds, error) {
	ctx, span := tracer.Start(ctx, "client:GalleryArchive")
	defer span.End()
	span.SetAttributes(urlAttr(archiveURL))

	doc, err := c.fetchDocument(ctx, archiveURL, nil)
	if err != nil {
		return gallery.GalleryArchive{}, nil, fail(span, err, "failed to fetch")
	}
	archive, funds, err := parser.GalleryArchive(doc)
	if err != nil {
		return gallery.GalleryArchive{}, nil, fail(span, err, "failed to parse archive")
	}
	return archive, funds, nil
}

// ArchiveFunds follows the archive link of a detail page to read the current
// balances. A gallery without an archive link yields (nil, nil).
func (c *Client) ArchiveFunds(ctx context.Context, detailURL string) (*gallery.Funds, error) {
	ctx, span := tracer.Start(ctx, "client:ArchiveFunds")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL))

	doc, err := c.fetchDocument(ctx, detailURL, nil)
	if err != nil {
		return nil, fail(span, err, "failed to fetch detail")
	}
	archiveURL := parser.ArchiveURL(doc)
	if archiveURL == "" {
		return nil, nil
	}
	span.SetAttributes(attribute.String("archive_url", archiveURL))

	doc, err = c.fetchDocument(ctx, archiveURL, nil)
	if err != nil {
		return nil, fail(span, err, "failed to fetch archive")
	}
	funds := parser.Funds(doc)
	if funds == nil {
		return nil, fail(span, apperr.Newf(apperr.UNKNOWN, "archive page shows no balances"), "funds not found")
	}
	return funds, nil
}

func (c *Client) Torrents(ctx context.Context, gid, token string) ([]gallery.GalleryTorrent, error) {
	ctx, span := tracer.Start(ctx, "client:Torrents")
	defer span.End()
	span.SetAttributes(attribute.String("gid", gid))

	doc, err := c.fetchDocument(ctx, c.baseURL()+"/gallerytorrents.php", url.Values{
		"gid": {gid},
		"t":   {token},
	})
	if err != nil {
		return nil, fail(span, err, "failed to fetch")
	}
	torrents, err := parser.Torrents(doc)
	if err != nil {
		return nil, fail(span, err, "failed to parse torrents")
	}
	return torrents, nil
}

func (c *Client) Comments(ctx context.Context, detailURL string) ([]gallery.GalleryComment, error) {
	ctx, span := tracer.Start(ctx, "client:Comments")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL))

	doc, err := c.fetchDocument(ctx, detailURL, url.Values{"hc": {"1"}})
	if err != nil {
		return nil, fail(span, err, "failed to fetch")
	}
	comments, err := parser.Comments(doc)
	if err != nil {
		return nil, fail(span, err, "failed to parse comments")
	}
	return comments, nil
}

// Contents resolves the image urls of one thumbnail page of a gallery. Every
// image page is fetched concurrently, the batch fails as a whole if any of
// them fails. The result is ordered by page index.
func (c *Client) Contents(ctx context.Context, detailURL string, pageNum, pageCount int) ([]gallery.GalleryContent, error) {
	ctx, span := tracer.Start(ctx, "client:Contents")
	defer span.End()
	span.SetAttributes(
		urlAttr(detailURL),
		attribute.Int("page", pageNum),
		attribute.Int("page_count", pageCount),
	)

	doc, err := c.fetchDocument(ctx, detailURL, url.Values{"p": {strconv.Itoa(pageNum)}})
	if err != nil {
		return nil, fail(span, err, "failed to fetch pre-contents")
	}
	preContents, err := parser.ImagePreContents(doc, pageCount)
	if err != nil {
		return nil, fail(span, err, "failed to parse pre-contents")
	}

	contents := make([]gallery.GalleryContent, len(preContents))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(len(preContents))
	for i, pre := range preContents {
		i, pre := i, pre
		group.Go(func() error {
			doc, err := c.fetchDocument(groupCtx, pre.URL, nil)
			if err != nil {
				return err
			}
			content, err := parser.GalleryContent(doc, pre.Index)
			if err != nil {
				return err
			}
			contents[i] = content
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return nil, fail(span, err, "failed to fetch contents")
	}

	slices.SortStableFunc(contents, func(a, b gallery.GalleryContent) int {
		return a.Tag - b.Tag
	})
	return contents, nil
}

// AlterImages follows the detail page's "Normal" thumbnail mode link and
// reads the sprite offsets of every thumbnail.
func (c *Client) AlterImages(ctx context.Context, detailURL string) ([]gallery.GalleryAlterData, error) {
	ctx, span := tracer.Start(ctx, "client:AlterImages")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL))

	doc, err := c.fetchDocument(ctx, detailURL, nil)
	if err != nil {
		return nil, fail(span, err, "failed to fetch detail")
	}
	alterURL, err := parser.AlterImagesURL(doc)
	if err != nil {
		return nil, fail(span, err, "failed to parse detail")
	}

	doc, err = c.fetchDocument(ctx, alterURL, nil)
	if err != nil {
		return nil, fail(span, err, "failed to fetch thumbnails")
	}
	images, err := parser.AlterImages(doc)
	if err != nil {
		return nil, fail(span, err, "failed to parse thumbnails")
	}
	return images, nil
}
