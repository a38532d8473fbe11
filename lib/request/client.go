// Package request performs every exchange with the gallery site: it composes
// the target url, fetches it through a shared resty client and hands the body
// to the parser. Errors leave this package classified.
package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync/atomic"
	"time"

	"ehclient/lib/apperr"
	"ehclient/lib/gallery"
	"ehclient/lib/parser"
	"ehclient/lib/restyutil"
	"ehclient/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("ehclient/lib/request")

var ErrUnexpectedStatus = errors.New("unexpected response status")

type Config struct {
	EHentaiURL     string `json:"ehentai_url" env:"EHENTAI_URL"`
	ExHentaiURL    string `json:"exhentai_url" env:"EXHENTAI_URL"`
	ForumsURL      string `json:"forums_url" env:"FORUMS_URL"`
	APIURL         string `json:"api_url" env:"API_URL"`
	ExAPIURL       string `json:"exapi_url" env:"EXAPI_URL"`
	// TranslationURL is formatted with the translation language.
	TranslationURL string `json:"translation_url" env:"TRANSLATION_URL"`
	UserAgent      string `json:"user_agent" env:"USER_AGENT"`

	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64 `json:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	TimeoutSeconds    int     `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

func DefaultConfig() Config {
	return Config{
		EHentaiURL:        "https://e-hentai.org",
		ExHentaiURL:       "https://exhentai.org",
		ForumsURL:         "https://forums.e-hentai.org",
		APIURL:            "https://api.e-hentai.org/api.php",
		ExAPIURL:          "https://s.exhentai.org/api.php",
		TranslationURL:    "https://github.com/EhTagTranslation/Database/releases/latest/download/db.%s.json",
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		RequestsPerSecond: 2,
		TimeoutSeconds:    30,
	}
}

// NewCookieJar makes the jar shared between the client and the cookie store.
func NewCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

type Client struct {
	Http   *resty.Client
	config Config
	host   atomic.Value
}

type ClientOptions struct {
	Config Config
	Host   gallery.GalleryHost
	// Jar defaults to a fresh jar when nil.
	Jar http.CookieJar
	// DumpOutput receives every exchange while debug logging is on.
	DumpOutput restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions) (*Client, error) {
	config := opts.Config
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 30
	}

	hostnames := []string{}
	for _, raw := range []string{config.EHentaiURL, config.ExHentaiURL, config.ForumsURL, config.APIURL, config.ExAPIURL} {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("bad url %q in config: %w", raw, err)
		}
		hostnames = append(hostnames, parsed.Hostname())
	}

	jar := opts.Jar
	if jar == nil {
		var err error
		jar, err = NewCookieJar()
		if err != nil {
			return nil, err
		}
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	if config.UserAgent != "" {
		client.SetHeader("user-agent", config.UserAgent)
	}
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(hostnames...))
	client.SetTimeout(time.Second * time.Duration(config.TimeoutSeconds))

	limit := rate.Inf
	burst := 1
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
		// max burst >= rate just means that no requests will be dropped
		burst = int(config.RequestsPerSecond + 0.5)
		if burst < 1 {
			burst = 1
		}
	}
	rateLimiter := rate.NewLimiter(limit, burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "ehclient/lib/request/http")
	restyutil.InstrumentClient(client, opts.DumpOutput)

	c := &Client{
		Http:   client,
		config: config,
	}
	host := opts.Host
	if host == "" {
		host = gallery.HOST_EHENTAI
	}
	c.host.Store(host)
	return c, nil
}

// SetGalleryHost switches every following request between E-Hentai and
// ExHentai.
func (c *Client) SetGalleryHost(host gallery.GalleryHost) {
	c.host.Store(host)
}

func (c *Client) GalleryHost() gallery.GalleryHost {
	return c.host.Load().(gallery.GalleryHost)
}

func (c *Client) baseURL() string {
	if c.GalleryHost() == gallery.HOST_EXHENTAI {
		return c.config.ExHentaiURL
	}
	return c.config.EHentaiURL
}

func (c *Client) apiURL() string {
	if c.GalleryHost() == gallery.HOST_EXHENTAI && c.config.ExAPIURL != "" {
		return c.config.ExAPIURL
	}
	return c.config.APIURL
}

// Ack is the opaque acknowledgment of a mutating request.
type Ack struct {
	StatusCode int
}

func checkStatus(res *resty.Response) error {
	if res.StatusCode() >= 400 {
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, res.StatusCode(), res.Request.URL)
	}
	return nil
}

func (c *Client) fetchDocument(ctx context.Context, endpoint string, query url.Values) (*goquery.Document, error) {
	req := c.Http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(endpoint)
	if err != nil {
		return nil, err
	}
	err = checkStatus(res)
	if err != nil {
		return nil, err
	}
	return parser.Document(res.Body())
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(endpoint)
	if err != nil {
		return nil, err
	}
	return res, checkStatus(res)
}

func (c *Client) postJSON(ctx context.Context, body any) (Ack, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(c.apiURL())
	if err != nil {
		return Ack{}, err
	}
	return Ack{StatusCode: res.StatusCode()}, checkStatus(res)
}

// classify is the single point where raw failures become *apperr.Error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Classify(err)
}

func fail(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return classify(err)
}

func urlAttr(endpoint string) attribute.KeyValue {
	return attribute.String("url", endpoint)
}
