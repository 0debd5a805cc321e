package urlutil_test

import (
	"net/url"
	"testing"

	"github.com/rohmanhakim/fic-roulette/pkg/urlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercases scheme and host", in: "HTTPS://ArchiveOfOurOwn.org/works/1", want: "https://archiveofourown.org/works/1"},
		{name: "drops default port", in: "https://archiveofourown.org:443/works/1", want: "https://archiveofourown.org/works/1"},
		{name: "keeps non-default port", in: "http://localhost:8080/works/1", want: "http://localhost:8080/works/1"},
		{name: "strips trailing slash", in: "https://archiveofourown.org/works/1/", want: "https://archiveofourown.org/works/1"},
		{name: "keeps root slash", in: "https://archiveofourown.org/", want: "https://archiveofourown.org/"},
		{name: "drops fragment keeps query", in: "https://archiveofourown.org/works/search?page=2#main", want: "https://archiveofourown.org/works/search?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := urlutil.Canonicalize(mustParse(t, tt.in))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "https://archiveofourown.org")

	got, err := urlutil.Resolve(base, "/works/12345")
	require.NoError(t, err)
	assert.Equal(t, "https://archiveofourown.org/works/12345", got.String())

	abs, err := urlutil.Resolve(base, "HTTP://Example.com:80/x/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/x", abs.String())

	_, err = urlutil.Resolve(base, "%zz")
	assert.Error(t, err)
}
