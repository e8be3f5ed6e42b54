package enrich

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	maxResponseBytes   = 2 * 1024 * 1024
	slowLoadThreshold  = 3 * time.Second
	redesignScoreFloor = 30
)

// legacyJQueryPattern anchors on a 1.x major version so bundles like
// jquery-3.7.1.min.js don't match on their patch digits.
var legacyJQueryPattern = regexp.MustCompile(`jquery[-./]?1\.\d`)

// WebsiteAnalysis captures the redesign heuristics for one homepage.
type WebsiteAnalysis struct {
	URL             string        `json:"url"`
	LoadTime        time.Duration `json:"load_time"`
	MissingViewport bool          `json:"missing_viewport"`
	LegacyJQuery    bool          `json:"legacy_jquery"`
	Generator       string        `json:"generator,omitempty"`
	RedesignScore   int           `json:"redesign_score"`
	NeedsRedesign   bool          `json:"needs_redesign"`
}

// Analyzer fetches a homepage and grades how badly it needs a rebuild.
type Analyzer struct {
	client    *http.Client
	userAgent string
}

func NewAnalyzer(timeout time.Duration, userAgent string) *Analyzer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Analyzer{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Analyze downloads the page and applies the heuristics: a missing mobile
// viewport, legacy jQuery 1.x bundles, and slow load times each add points;
// past the floor the site is flagged as needing a redesign.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (WebsiteAnalysis, error) {
	target := ensureScheme(rawURL)
	analysis := WebsiteAnalysis{URL: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return analysis, eris.Wrap(err, "enrich: build request")
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return analysis, eris.Wrap(err, "enrich: fetch homepage")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return analysis, eris.Errorf("enrich: %s responded with status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return analysis, eris.Wrap(err, "enrich: read homepage")
	}
	analysis.LoadTime = time.Since(start)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return analysis, eris.Wrap(err, "enrich: parse homepage")
	}

	if doc.Find(`meta[name="viewport"]`).Length() == 0 {
		analysis.MissingViewport = true
		analysis.RedesignScore += 20
	}

	if generator, ok := doc.Find(`meta[name="generator"]`).Attr("content"); ok {
		analysis.Generator = strings.TrimSpace(generator)
	}

	doc.Find("script[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if isLegacyJQuery(src) {
			analysis.LegacyJQuery = true
			analysis.RedesignScore += 25
			return false
		}
		return true
	})

	if analysis.LoadTime > slowLoadThreshold {
		analysis.RedesignScore += 15
	}

	analysis.NeedsRedesign = analysis.RedesignScore > redesignScoreFloor
	return analysis, nil
}

func isLegacyJQuery(src string) bool {
	return legacyJQueryPattern.MatchString(strings.ToLower(src))
}

func ensureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + strings.TrimLeft(raw, "/")
}
