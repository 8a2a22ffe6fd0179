package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rahul/agentdesk/internal/governance"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	queries []string
	err     error
}

func (f *fakeSearcher) Call(ctx context.Context, input string) (string, error) {
	f.queries = append(f.queries, input)
	if f.err != nil {
		return "", f.err
	}
	return "result for " + input, nil
}

const articleHTML = `<html><head><title>Gophers</title></head><body>
<article><h1>Gophers</h1>
<p>Gophers are small burrowing rodents found across North America. They spend most of their lives underground.</p>
<p>They are known for the extensive tunnel systems they dig, which can stretch for hundreds of feet.</p>
<p>The Go programming language adopted the gopher as its mascot, drawn by Renee French.</p>
<script>alert("x")</script>
</article></body></html>`

func articleServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewScraperTool(0))
	r.Register(NewSearchToolWith(&fakeSearcher{}))

	assert.Equal(t, []string{"scraper", "search"}, r.Names())
	assert.NotNil(t, r.Get("search"))
	assert.Nil(t, r.Get("shell"))
}

func TestSearchTool_Execute(t *testing.T) {
	fs := &fakeSearcher{}
	s := NewSearchToolWith(fs)

	out, err := s.Execute(context.Background(), `{"query":"golang"}`)
	require.NoError(t, err)
	assert.Equal(t, "result for golang", out)

	_, err = s.Execute(context.Background(), `not json`)
	assert.Error(t, err)
	_, err = s.Execute(context.Background(), `{"query":"  "}`)
	assert.Error(t, err)

	fs.err = errors.New("rate limited")
	_, err = s.Execute(context.Background(), `{"query":"golang"}`)
	assert.ErrorContains(t, err, "rate limited")
}

func TestScraperTool_Execute(t *testing.T) {
	srv := articleServer(t)
	s := NewScraperTool(0)
	s.Client = srv.Client()

	out, err := s.Execute(context.Background(), `{"url":"`+srv.URL+`/gophers"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE: Gophers")
	assert.Contains(t, out, "burrowing rodents")
	assert.NotContains(t, out, "<script>")

	_, err = s.Execute(context.Background(), `{"url":"`+srv.URL+`/missing"}`)
	assert.ErrorContains(t, err, "status code 404")
}

func TestScraperTool_Truncates(t *testing.T) {
	srv := articleServer(t)
	s := NewScraperTool(40)
	s.Client = srv.Client()

	out, err := s.Execute(context.Background(), `{"url":"`+srv.URL+`"}`)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "... (content truncated) ..."))
}

func TestScraperTool_RefusesLoopback(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, articleHTML)
	}))
	t.Cleanup(srv.Close)

	// The default client dials only public addresses.
	s := NewScraperTool(0)
	_, err := s.Execute(context.Background(), `{"url":"`+srv.URL+`"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, governance.ErrNonPublicAddress)
	assert.Zero(t, hits)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "h", truncateUTF8("hé", 2))
	assert.Equal(t, "hé", truncateUTF8("hé", 3))
}

func TestWebContext_Gather(t *testing.T) {
	srv := articleServer(t)
	fs := &fakeSearcher{}

	scraper := NewScraperTool(0)
	scraper.Client = srv.Client()

	r := NewRegistry()
	r.Register(scraper)
	r.Register(NewSearchToolWith(fs))

	w := &WebContext{Registry: r, Logger: observability.NopLogger()}
	out := w.Gather(context.Background(), "run-1", "summarize "+srv.URL+"/gophers.")

	assert.Contains(t, out, "Page "+srv.URL+"/gophers:\nTITLE: Gophers")
	assert.Contains(t, out, "Search results:\nresult for summarize")
	assert.Len(t, fs.queries, 1)
}

func TestWebContext_PolicyBlocksPrivateHosts(t *testing.T) {
	srv := articleServer(t)
	fs := &fakeSearcher{}

	r := NewRegistry()
	r.Register(NewScraperTool(0))
	r.Register(NewSearchToolWith(fs))

	w := &WebContext{Registry: r, Policy: governance.NewToolPolicy(), Logger: observability.NopLogger()}
	out := w.Gather(context.Background(), "run-2", "read "+srv.URL)

	// httptest listens on loopback.
	assert.NotContains(t, out, "TITLE:")
	assert.Contains(t, out, "Search results:")
}

func TestWebContext_NothingRegistered(t *testing.T) {
	w := &WebContext{Registry: NewRegistry()}
	assert.Empty(t, w.Gather(context.Background(), "", "anything"))
	assert.Empty(t, (&WebContext{}).Gather(context.Background(), "", "anything"))
}
