package leads

import "strings"

// WebsiteStatus classifies a business's online presence.
type WebsiteStatus string

const (
	StatusOfficial   WebsiteStatus = "OFFICIAL"
	StatusSocialOnly WebsiteStatus = "SOCIAL_ONLY"
	StatusNone       WebsiteStatus = "NONE"
)

// RawRecord is the per-card harvest result before classification and scoring.
// Every field except Name may be missing; absent values stay at their zero
// value. Name doubles as the dedup key for a harvesting run.
type RawRecord struct {
	Name        string
	Rating      float64
	ReviewCount int
	URL         string
	Phone       string
}

// BusinessEntity is the final lead record. It is built once per qualifying
// raw record and never mutated afterwards.
type BusinessEntity struct {
	Name             string        `json:"name"`
	Category         string        `json:"category"`
	Location         string        `json:"location"`
	Rating           float64       `json:"rating"`
	ReviewCount      int           `json:"review_count"`
	URL              string        `json:"url,omitempty"`
	Phone            string        `json:"phone,omitempty"`
	WebsiteStatus    WebsiteStatus `json:"website_status"`
	PerformanceScore float64       `json:"performance_score"`
}

// FromRaw builds the immutable lead record for one harvested business,
// attaching the caller-supplied category/location and the derived website
// status and performance score.
func FromRaw(raw RawRecord, category, location string) BusinessEntity {
	return BusinessEntity{
		Name:             strings.TrimSpace(raw.Name),
		Category:         category,
		Location:         location,
		Rating:           raw.Rating,
		ReviewCount:      raw.ReviewCount,
		URL:              strings.TrimSpace(raw.URL),
		Phone:            strings.TrimSpace(raw.Phone),
		WebsiteStatus:    Classify(raw.URL),
		PerformanceScore: Score(raw.Rating, raw.ReviewCount),
	}
}
