package enrich

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/miekg/dns"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultMaxPages = 6

var emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

// invalidEmailFragments filter out placeholders and asset names that the
// broad regex would otherwise accept.
var invalidEmailFragments = []string{
	"example.com",
	"@example",
	".png",
	".jpg",
	".gif",
	"noreply",
	"youremail",
	"sampleemail",
}

// contactAnchors mark links worth following when the landing page carries no
// email itself.
var contactAnchors = []string{
	"contact",
	"about",
	"team",
	"impressum",
	"kontakt",
	"contacto",
}

// EmailHunter crawls a business website looking for a contact email,
// bounded to a handful of same-host pages.
type EmailHunter struct {
	client    *http.Client
	userAgent string
	maxPages  int
	log       *zap.Logger

	// lookupMX is swappable in tests to avoid live DNS.
	lookupMX func(domain string) bool
}

func NewEmailHunter(timeout time.Duration, userAgent string, maxPages int, log *zap.Logger) *EmailHunter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EmailHunter{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxPages:  maxPages,
		log:       log,
		lookupMX:  hasMXRecords,
	}
}

// Hunt breadth-first crawls the site starting at rawURL, preferring
// contact-like links, and returns the first email that survives sanitization
// and MX validation. An empty string with nil error means none was found.
func (h *EmailHunter) Hunt(ctx context.Context, rawURL string) (string, error) {
	startURL := ensureScheme(rawURL)
	root, err := url.Parse(startURL)
	if err != nil || root.Hostname() == "" {
		return "", eris.Errorf("enrich: invalid website URL %q", rawURL)
	}

	queue := []string{startURL}
	visited := make(map[string]struct{})
	pages := 0

	for len(queue) > 0 && pages < h.maxPages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		doc, rawHTML, err := h.fetchPage(ctx, current)
		if err != nil {
			h.log.Debug("page fetch failed", zap.String("url", current), zap.Error(err))
			continue
		}
		pages++

		if email := h.firstValidEmail(rawHTML); email != "" {
			return email, nil
		}
		if email := h.emailFromMailtoLinks(doc); email != "" {
			return email, nil
		}

		queue = append(queue, candidateLinks(doc, current, root)...)
	}

	return "", nil
}

func (h *EmailHunter) fetchPage(ctx context.Context, target string) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", eris.Errorf("enrich: %s responded with status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	return doc, string(body), nil
}

func (h *EmailHunter) firstValidEmail(html string) string {
	for _, match := range emailPattern.FindAllString(html, -1) {
		if email := h.sanitizeEmail(match); email != "" {
			return email
		}
	}
	return ""
}

func (h *EmailHunter) emailFromMailtoLinks(doc *goquery.Document) string {
	email := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return true
		}
		candidate := strings.TrimPrefix(href, "mailto:")
		if idx := strings.Index(candidate, "?"); idx != -1 {
			candidate = candidate[:idx]
		}
		if sanitized := h.sanitizeEmail(candidate); sanitized != "" {
			email = sanitized
			return false
		}
		return true
	})
	return email
}

// sanitizeEmail trims wrapping punctuation, rejects placeholder patterns,
// and confirms the domain accepts mail before accepting a candidate.
func (h *EmailHunter) sanitizeEmail(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "<>()[]{}.,;:\"'`")
	clean = strings.TrimPrefix(clean, "mailto:")
	if idx := strings.Index(clean, "?"); idx != -1 {
		clean = clean[:idx]
	}
	if decoded, err := url.QueryUnescape(clean); err == nil {
		clean = decoded
	}

	match := emailPattern.FindString(clean)
	if match == "" {
		return ""
	}
	match = strings.ToLower(match)

	for _, fragment := range invalidEmailFragments {
		if strings.Contains(match, fragment) {
			return ""
		}
	}

	parts := strings.Split(match, "@")
	if len(parts) != 2 || !h.lookupMX(parts[1]) {
		return ""
	}
	return match
}

// candidateLinks gathers same-host links worth crawling next, preferring
// contact-like anchors and falling back to the first couple of links when
// nothing matches.
func candidateLinks(doc *goquery.Document, pageURL string, root *url.URL) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = root
	}

	var prioritized []string
	var fallback []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(strings.ToLower(href), "mailto:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		resolved.Fragment = ""
		if !strings.EqualFold(resolved.Hostname(), root.Hostname()) {
			return
		}
		abs := resolved.String()
		combined := strings.ToLower(sel.Text() + " " + abs)
		for _, anchor := range contactAnchors {
			if strings.Contains(combined, anchor) {
				prioritized = append(prioritized, abs)
				return
			}
		}
		if len(fallback) < 2 {
			fallback = append(fallback, abs)
		}
	})

	if len(prioritized) > 0 {
		return prioritized
	}
	return fallback
}

// hasMXRecords checks the domain against public resolvers, trying a second
// one if the first is unreachable.
func hasMXRecords(domain string) bool {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	client := new(dns.Client)
	for _, server := range []string{"8.8.8.8:53", "1.1.1.1:53"} {
		resp, _, err := client.Exchange(msg, server)
		if err != nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}
