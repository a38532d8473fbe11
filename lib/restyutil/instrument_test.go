package restyutil

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock     sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.messages[id] = contents
}

func TestInstrumentClient(t *testing.T) {
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(previous)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sk", Value: "secret"})
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	output := &memoryOutput{messages: map[string]string{}}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentClient(client, output)

	_, err := client.R().
		SetHeader("Cookie", "ipb_pass_hash=secret").
		SetFormData(map[string]string{"favcat": "1"}).
		Post("/gallerypopups.php")
	require.NoError(t, err)

	require.Len(t, output.messages, 1)
	message := output.messages["1"]
	require.Contains(t, message, "POST "+server.URL+"/gallerypopups.php")
	require.Contains(t, message, "favcat=1")
	require.Contains(t, message, "<html>ok</html>")
	require.NotContains(t, message, "secret")
}

func TestInstrumentClientSkipsWithoutDebug(t *testing.T) {
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer slog.SetDefault(previous)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	output := &memoryOutput{messages: map[string]string{}}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentClient(client, output)

	_, err := client.R().Get("/")
	require.NoError(t, err)
	require.Empty(t, output.messages)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("7", "---- REQUEST ----")
	contents, err := os.ReadFile(filepath.Join(dir, "7.http"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(contents), "---- REQUEST"))
}

func TestRedactCookie(t *testing.T) {
	testCases := []struct {
		value    string
		expected string
	}{
		{value: "ipb_member_id=1; ipb_pass_hash=abc", expected: "ipb_member_id=<redacted>; ipb_pass_hash=<redacted>"},
		{value: "sl=dm_2; igneous=xyz", expected: "sl=dm_2; igneous=<redacted>"},
		{value: "sk=abc; Path=/; Domain=.e-hentai.org", expected: "sk=<redacted>; Path=/; Domain=.e-hentai.org"},
		{value: "nw=1", expected: "nw=1"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, redactCookie(tc.value), tc.value)
	}
}
