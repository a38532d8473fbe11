package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

// sessionCookies carry the login, their values never reach a dump.
var sessionCookies = []string{"ipb_member_id", "ipb_pass_hash", "igneous", "sk"}

const redacted = "<redacted>"

func redactPair(pair string) string {
	name, _, ok := strings.Cut(strings.TrimSpace(pair), "=")
	if ok && slices.Contains(sessionCookies, name) {
		return name + "=" + redacted
	}
	return strings.TrimSpace(pair)
}

// redactCookie handles both "a=1; b=2" request headers and "a=1; Path=/"
// response headers.
func redactCookie(value string) string {
	pairs := strings.Split(value, ";")
	for i, pair := range pairs {
		pairs[i] = redactPair(pair)
	}
	return strings.Join(pairs, "; ")
}

func writeHeaders(out *strings.Builder, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		for _, v := range headers[k] {
			if k == "Cookie" || k == "Set-Cookie" {
				v = redactCookie(v)
			}
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

func requestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	defer body.Close()
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

// formatExchange renders a request and its response the way they went over
// the wire, the final url is the redirect target when there is one.
func formatExchange(res *resty.Response) string {
	var out strings.Builder

	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	writeHeaders(&out, res.Request.RawRequest.Header)
	out.WriteString("\n")
	out.WriteString(requestBody(res.Request.RawRequest))

	responseURL := res.Request.URL
	redirected, err := res.RawResponse.Location()
	if err == nil {
		responseURL = redirected.String()
	}
	out.WriteString("\n\n---- RESPONSE ----\n\n")
	fmt.Fprintf(&out, "%d %s\n\n", res.StatusCode(), responseURL)
	writeHeaders(&out, res.Header())
	out.WriteString("\n")
	out.WriteString(res.String())

	return out.String()
}
