package leads

import "strings"

// socialDomains are hosts that count as a social/directory placeholder
// rather than an independent website.
var socialDomains = []string{
	"facebook.com",
	"instagram.com",
	"yelp.com",
	"linkedin.com",
	"whatsapp.com",
	"twitter.com",
	"tiktok.com",
	"linktr.ee",
}

// Classify maps a website URL to a presence status. Matching is substring
// containment on the lowercased URL, not strict host parsing, so subdomains
// and path-embedded profile links are caught too.
func Classify(url string) WebsiteStatus {
	if strings.TrimSpace(url) == "" {
		return StatusNone
	}
	lower := strings.ToLower(url)
	for _, domain := range socialDomains {
		if strings.Contains(lower, domain) {
			return StatusSocialOnly
		}
	}
	return StatusOfficial
}
