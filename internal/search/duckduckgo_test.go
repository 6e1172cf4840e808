package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duckDuckGoFixture = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fsolar-umbrella&amp;rut=abc">Solar Umbrella — official site</a>
    </h2>
    <a class="result__snippet" href="#">An umbrella with built-in solar panels.</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://shop.example.org/parasol">Charging parasol</a>
    <a class="result__snippet" href="#">Charge devices in the shade.</a>
  </div>
  <div class="result result--ad">
    <a class="result__a" href="https://duckduckgo.com/y.js?ad=1">Sponsored thing</a>
  </div>
</div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "solar umbrella", r.PostForm.Get("q"))
		assert.Equal(t, "us-en", r.PostForm.Get("kl"))

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(duckDuckGoFixture))
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(WithDuckDuckGoURL(srv.URL))
	results, err := p.Search(context.Background(), "solar umbrella")
	require.NoError(t, err)

	// The ad pointing back at duckduckgo.com is dropped.
	require.Len(t, results, 2)
	assert.Equal(t, "Solar Umbrella — official site", results[0].Title)
	assert.Equal(t, "https://example.com/solar-umbrella", results[0].Link)
	assert.Equal(t, "An umbrella with built-in solar panels.", results[0].Snippet)
	assert.Equal(t, "https://shop.example.org/parasol", results[1].Link)
}

func TestDuckDuckGoSearchRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(duckDuckGoFixture))
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(WithDuckDuckGoURL(srv.URL), WithDuckDuckGoLimit(1))
	results, err := p.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDuckDuckGoSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewDuckDuckGoProvider(WithDuckDuckGoURL(srv.URL))
	_, err := p.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestResolveDuckDuckGoRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"wrapped", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=x", "https://example.com/page"},
		{"direct", "https://example.com/page", "https://example.com/page"},
		{"no target", "//duckduckgo.com/l/?rut=x", "//duckduckgo.com/l/?rut=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveDuckDuckGoRedirect(tt.href))
		})
	}
}
