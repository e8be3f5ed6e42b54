package maps

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"ghosthunter/internal/leads"
)

// Detail-pane selectors. Maps markup is obfuscated, so these lean on stable
// accessibility attributes rather than generated class names.
const (
	ratingSelector  = `span[role="img"][aria-label*="stars"]`
	websiteSelector = `a[data-item-id="authority"]`
	phoneSelector   = `button[data-item-id^="phone:tel:"]`
)

// ratingPattern matches accessible text like "4.5 stars 1,204 Reviews".
var ratingPattern = regexp.MustCompile(`(?i)([\d.]+)\s+stars\s+([\d,]+)\s+Reviews`)

// extractRecord reads the detail pane for the card that was just activated.
// Optional fields degrade to their zero value when absent or unparsable; only
// a session-level failure aborts the card, and the harvester treats that as a
// single-card skip.
func extractRecord(ctx context.Context, session Session, name string) (leads.RawRecord, error) {
	record := leads.RawRecord{Name: name}

	label, ok, err := session.FirstAttribute(ctx, ratingSelector, "aria-label")
	if err != nil {
		return leads.RawRecord{}, eris.Wrap(err, "maps: read rating")
	}
	if ok {
		record.Rating, record.ReviewCount = parseRatingLabel(label)
	}

	href, ok, err := session.FirstAttribute(ctx, websiteSelector, "href")
	if err != nil {
		return leads.RawRecord{}, eris.Wrap(err, "maps: read website link")
	}
	if ok {
		record.URL = strings.TrimSpace(href)
	}

	phone, ok, err := session.FirstAttribute(ctx, phoneSelector, "aria-label")
	if err != nil {
		return leads.RawRecord{}, eris.Wrap(err, "maps: read phone")
	}
	if ok {
		record.Phone = strings.TrimSpace(strings.TrimPrefix(phone, "Phone: "))
	}

	return record, nil
}

// parseRatingLabel pulls the rating and review count out of the star
// indicator's accessible text, stripping thousands separators. Anything that
// doesn't match degrades to 0/0.
func parseRatingLabel(label string) (float64, int) {
	match := ratingPattern.FindStringSubmatch(label)
	if match == nil {
		return 0, 0
	}
	rating, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, 0
	}
	count, err := strconv.Atoi(strings.ReplaceAll(match[2], ",", ""))
	if err != nil {
		return rating, 0
	}
	return rating, count
}
