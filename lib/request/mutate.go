package request

import (
	"context"
	"net/url"
	"strconv"

	"ehclient/lib/gallery"
	"ehclient/lib/parser"

	"go.opentelemetry.io/otel/attribute"
)

func (c *Client) AddFavorite(ctx context.Context, gid, token string, favIndex int) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:AddFavorite")
	defer span.End()
	span.SetAttributes(attribute.String("gid", gid), attribute.Int("favcat", favIndex))

	endpoint := c.baseURL() + "/gallerypopups.php?" + url.Values{
		"gid": {gid},
		"t":   {token},
		"act": {"addfav"},
	}.Encode()
	res, err := c.postForm(ctx, endpoint, url.Values{
		"favcat":  {strconv.Itoa(favIndex)},
		"favnote": {""},
		"apply":   {"Add to Favorites"},
		"update":  {"1"},
	})
	if err != nil {
		return Ack{}, fail(span, err, "failed to add favorite")
	}
	return Ack{StatusCode: res.StatusCode()}, nil
}

func (c *Client) DeleteFavorite(ctx context.Context, gid string) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:DeleteFavorite")
	defer span.End()
	span.SetAttributes(attribute.String("gid", gid))

	res, err := c.postForm(ctx, c.baseURL()+"/favorites.php", url.Values{
		"ddact":        {"delete"},
		"modifygids[]": {gid},
		"apply":        {"Apply"},
	})
	if err != nil {
		return Ack{}, fail(span, err, "failed to delete favorite")
	}
	return Ack{StatusCode: res.StatusCode()}, nil
}

type rateRequest struct {
	Method string `json:"method"`
	APIUID int    `json:"apiuid"`
	APIKey string `json:"apikey"`
	GID    int    `json:"gid"`
	Token  string `json:"token"`
	Rating int    `json:"rating"`
}

// Rate submits a rating through the json api. rating is in half stars,
// 1 to 10.
func (c *Client) Rate(ctx context.Context, apiuid int, apikey gallery.APIKey, gid int, token string, rating int) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:Rate")
	defer span.End()
	span.SetAttributes(attribute.Int("gid", gid), attribute.Int("rating", rating))

	ack, err := c.postJSON(ctx, rateRequest{
		Method: "rategallery",
		APIUID: apiuid,
		APIKey: string(apikey),
		GID:    gid,
		Token:  token,
		Rating: rating,
	})
	if err != nil {
		return ack, fail(span, err, "failed to rate")
	}
	return ack, nil
}

type voteCommentRequest struct {
	Method      string `json:"method"`
	APIUID      int    `json:"apiuid"`
	APIKey      string `json:"apikey"`
	GID         int    `json:"gid"`
	Token       string `json:"token"`
	CommentID   int    `json:"comment_id"`
	CommentVote int    `json:"comment_vote"`
}

// VoteComment votes a comment up (1) or down (-1), voting the same way twice
// withdraws the vote.
func (c *Client) VoteComment(ctx context.Context, apiuid int, apikey gallery.APIKey, gid int, token string, commentID, vote int) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:VoteComment")
	defer span.End()
	span.SetAttributes(attribute.Int("gid", gid), attribute.Int("comment_id", commentID))

	ack, err := c.postJSON(ctx, voteCommentRequest{
		Method:      "votecomment",
		APIUID:      apiuid,
		APIKey:      string(apikey),
		GID:         gid,
		Token:       token,
		CommentID:   commentID,
		CommentVote: vote,
	})
	if err != nil {
		return ack, fail(span, err, "failed to vote comment")
	}
	return ack, nil
}

func (c *Client) Comment(ctx context.Context, detailURL, content string) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:Comment")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL))

	res, err := c.postForm(ctx, detailURL, url.Values{
		"commenttext_new": {content},
	})
	if err != nil {
		return Ack{}, fail(span, err, "failed to comment")
	}
	return Ack{StatusCode: res.StatusCode()}, nil
}

func (c *Client) EditComment(ctx context.Context, detailURL, commentID, content string) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:EditComment")
	defer span.End()
	span.SetAttributes(urlAttr(detailURL), attribute.String("comment_id", commentID))

	res, err := c.postForm(ctx, detailURL, url.Values{
		"edit_comment":     {commentID},
		"commenttext_edit": {content},
	})
	if err != nil {
		return Ack{}, fail(span, err, "failed to edit comment")
	}
	return Ack{StatusCode: res.StatusCode()}, nil
}

// SendDownloadCommand asks the archiver to queue a download to the account's
// H@H client. The outcome is a value, only transport and parse failures are
// errors.
func (c *Client) SendDownloadCommand(ctx context.Context, archiveURL string, resolution gallery.ArchiveResolution) (gallery.DownloadCommandResponse, error) {
	ctx, span := tracer.Start(ctx, "client:SendDownloadCommand")
	defer span.End()
	span.SetAttributes(urlAttr(archiveURL), attribute.String("resolution", string(resolution)))

	res, err := c.postForm(ctx, archiveURL, url.Values{
		"hathdl_xres": {resolution.Parameter()},
	})
	if err != nil {
		return gallery.DOWNLOAD_COMMAND_UNKNOWN, fail(span, err, "failed to send command")
	}
	doc, err := parser.Document(res.Body())
	if err != nil {
		return gallery.DOWNLOAD_COMMAND_UNKNOWN, fail(span, err, "failed to parse response")
	}
	resp, err := parser.DownloadCommandResponse(doc)
	if err != nil {
		return gallery.DOWNLOAD_COMMAND_UNKNOWN, fail(span, err, "failed to parse response")
	}
	span.SetAttributes(attribute.String("response", resp.String()))
	return resp, nil
}
