package telemetry

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInstrumentHeadersRedactsCookies(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cookie", "ipb_member_id=1; ipb_pass_hash=secret")
	headers.Set("User-Agent", "ehclient")
	headers.Add("Accept", "text/html")
	headers.Add("Accept", "*/*")

	var attrs []attribute.KeyValue
	instrumentHeaders(&attrs, "request", headers)

	values := map[string]string{}
	for _, a := range attrs {
		values[string(a.Key)] = a.Value.AsString()
	}
	require.Equal(t, "<1 redacted>", values["request/header: Cookie"])
	require.Equal(t, "ehclient", values["request/header: User-Agent"])
	require.Equal(t, "*/*", values["request/header: Accept (1)"])
	for _, v := range values {
		require.False(t, strings.Contains(v, "secret"))
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short"))

	long := strings.Repeat("a", maxBodyAttribute+10)
	out := truncate(long)
	require.True(t, strings.HasSuffix(out, "... (4106 bytes)"))
}
