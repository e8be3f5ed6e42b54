package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_ModernPageScoresZero(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<script src="/assets/jquery-3.7.1.min.js"></script>
	</head><body>hi</body></html>`)

	analysis, err := NewAnalyzer(5*time.Second, "test-agent").Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.False(t, analysis.MissingViewport)
	assert.False(t, analysis.LegacyJQuery)
	assert.Equal(t, 0, analysis.RedesignScore)
	assert.False(t, analysis.NeedsRedesign)
}

func TestAnalyze_MissingViewportAndLegacyJQuery(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta name="generator" content="WordPress 4.9">
		<script src="https://code.jquery.com/jquery-1.8.3.min.js"></script>
	</head><body>old site</body></html>`)

	analysis, err := NewAnalyzer(5*time.Second, "test-agent").Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, analysis.MissingViewport)
	assert.True(t, analysis.LegacyJQuery)
	assert.Equal(t, "WordPress 4.9", analysis.Generator)
	assert.Equal(t, 45, analysis.RedesignScore)
	assert.True(t, analysis.NeedsRedesign)
}

func TestAnalyze_ViewportAloneStaysBelowFloor(t *testing.T) {
	srv := servePage(t, `<html><head></head><body>minimal</body></html>`)

	analysis, err := NewAnalyzer(5*time.Second, "test-agent").Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, analysis.MissingViewport)
	assert.Equal(t, 20, analysis.RedesignScore)
	assert.False(t, analysis.NeedsRedesign, "20 points should not cross the redesign floor")
}

func TestAnalyze_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := NewAnalyzer(5*time.Second, "test-agent").Analyze(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestIsLegacyJQuery(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"hyphenated 1.x", "/assets/jquery-1.8.3.min.js", true},
		{"dotted 1.x", "jquery.1.4.2.js", true},
		{"cdn path 1.x", "https://ajax.googleapis.com/ajax/libs/jquery/1.11.0/jquery.min.js", true},
		{"uppercase", "/js/JQUERY-1.9.1.js", true},
		{"modern with 1.x patch digits", "/assets/jquery-3.7.1.min.js", false},
		{"modern 2.x", "jquery-2.1.4.min.js", false},
		{"unrelated script", "/assets/app.bundle.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isLegacyJQuery(tt.src))
		})
	}
}

func TestEnsureScheme(t *testing.T) {
	assert.Equal(t, "https://example.com", ensureScheme("example.com"))
	assert.Equal(t, "https://example.com", ensureScheme("  example.com"))
	assert.Equal(t, "http://example.com", ensureScheme("http://example.com"))
	assert.Equal(t, "https://example.com/a", ensureScheme("https://example.com/a"))
	assert.Equal(t, "https://httpexample.com", ensureScheme("httpexample.com"))
}
