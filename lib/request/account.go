package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"

	"go.opentelemetry.io/otel/attribute"
)

// UserInfo fetches the forum profile of member uid.
func (c *Client) UserInfo(ctx context.Context, uid string) (gallery.User, error) {
	ctx, span := tracer.Start(ctx, "client:UserInfo")
	defer span.End()
	span.SetAttributes(attribute.String("uid", uid))

	doc, err := c.fetchDocument(ctx, c.config.ForumsURL+"/index.php", url.Values{"showuser": {uid}})
	if err != nil {
		return gallery.User{}, fail(span, err, "failed to fetch")
	}
	user, err := parser.UserInfo(doc)
	if err != nil {
		return gallery.User{}, fail(span, err, "failed to parse profile")
	}
	return user, nil
}

func (c *Client) FavoriteNames(ctx context.Context) (map[int]string, error) {
	ctx, span := tracer.Start(ctx, "client:FavoriteNames")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.baseURL()+"/uconfig.php", nil)
	if err != nil {
		return nil, fail(span, err, "failed to fetch")
	}
	names, err := parser.FavoriteNames(doc)
	if err != nil {
		return nil, fail(span, err, "failed to parse favorite names")
	}
	return names, nil
}

// ProfileIndex reports the value of the client's own settings profile. found
// is false when the account has no such profile yet.
func (c *Client) ProfileIndex(ctx context.Context) (index int, found bool, err error) {
	ctx, span := tracer.Start(ctx, "client:ProfileIndex")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.baseURL()+"/uconfig.php", nil)
	if err != nil {
		return 0, false, fail(span, err, "failed to fetch")
	}
	index, found, err = parser.ProfileIndex(doc)
	if err != nil {
		return 0, false, fail(span, err, "failed to parse profiles")
	}
	return index, found, nil
}

func (c *Client) CreateProfile(ctx context.Context, name string) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:CreateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("name", name))

	res, err := c.postForm(ctx, c.baseURL()+"/uconfig.php", url.Values{
		"profile_action": {"create"},
		"profile_name":   {name},
	})
	if err != nil {
		return Ack{}, fail(span, err, "failed to create profile")
	}
	return Ack{StatusCode: res.StatusCode()}, nil
}

// Funds reads the current balances from the exchange page, which is only
// readable while logged in.
func (c *Client) Funds(ctx context.Context) (gallery.Funds, error) {
	ctx, span := tracer.Start(ctx, "client:Funds")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.config.EHentaiURL+"/exchange.php", url.Values{"t": {"gp"}})
	if err != nil {
		return gallery.Funds{}, fail(span, err, "failed to fetch")
	}
	funds := parser.Funds(doc)
	if funds == nil {
		return gallery.Funds{}, fail(span, apperr.Newf(apperr.NOT_LOGGED_IN, "exchange page shows no balances"), "funds not found")
	}
	return *funds, nil
}

// Greeting fetches the news page, which hands out the daily reward once per
// day. The greeting is stamped with the time it was read.
func (c *Client) Greeting(ctx context.Context) (gallery.Greeting, error) {
	ctx, span := tracer.Start(ctx, "client:Greeting")
	defer span.End()

	doc, err := c.fetchDocument(ctx, c.config.EHentaiURL+"/news.php", nil)
	if err != nil {
		return gallery.Greeting{}, fail(span, err, "failed to fetch")
	}
	greeting, err := parser.Greeting(doc)
	if err != nil {
		return gallery.Greeting{}, fail(span, err, "failed to parse greeting")
	}
	greeting.UpdateTime = time.Now()
	return greeting, nil
}

// Igneous visits ExHentai once so that it hands out its igneous cookie, the
// jar keeps whatever is set.
func (c *Client) Igneous(ctx context.Context) (Ack, error) {
	ctx, span := tracer.Start(ctx, "client:Igneous")
	defer span.End()

	res, err := c.Http.R().SetContext(ctx).Get(c.config.ExHentaiURL + "/uconfig.php")
	if err != nil {
		return Ack{}, fail(span, err, "failed to fetch")
	}
	err = checkStatus(res)
	if err != nil {
		return Ack{}, fail(span, err, "failed to fetch")
	}
	return Ack{StatusCode: res.StatusCode()}, nil
}

type translationEntry struct {
	Name string `json:"name"`
}

type translationDatabase struct {
	Head struct {
		Committer struct {
			When time.Time `json:"when"`
		} `json:"committer"`
	} `json:"head"`
	Data []struct {
		Namespace string                      `json:"namespace"`
		Data      map[string]translationEntry `json:"data"`
	} `json:"data"`
}

// TagTranslator downloads the tag translation database for language. It
// returns nil when the published database is not newer than updatedDate.
func (c *Client) TagTranslator(ctx context.Context, language string, updatedDate time.Time) (*gallery.TagTranslator, error) {
	ctx, span := tracer.Start(ctx, "client:TagTranslator")
	defer span.End()
	span.SetAttributes(attribute.String("language", language))

	endpoint := fmt.Sprintf(c.config.TranslationURL, language)
	res, err := c.Http.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return nil, fail(span, err, "failed to fetch")
	}
	err = checkStatus(res)
	if err != nil {
		return nil, fail(span, err, "failed to fetch")
	}

	var db translationDatabase
	err = json.Unmarshal(res.Body(), &db)
	if err != nil {
		return nil, fail(span, apperr.New(apperr.UNKNOWN, err), "failed to decode database")
	}
	if !db.Head.Committer.When.After(updatedDate) {
		return nil, nil
	}

	translations := map[string]string{}
	for _, namespace := range db.Data {
		for key, entry := range namespace.Data {
			if key == "" || entry.Name == "" {
				continue
			}
			translations[key] = stripMarkdown(entry.Name)
		}
	}
	return &gallery.TagTranslator{
		Language:     language,
		UpdatedDate:  db.Head.Committer.When,
		Translations: translations,
	}, nil
}

// names in the database may carry an image in markdown before the text
func stripMarkdown(name string) string {
	if i := strings.LastIndex(name, ")"); strings.HasPrefix(name, "![") && i >= 0 {
		return strings.TrimSpace(name[i+1:])
	}
	return name
}
