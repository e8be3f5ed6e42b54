package leads

const (
	minOpportunityRating  = 4.0
	minOpportunityReviews = 15
)

// IsOpportunity reports whether a lead is worth pursuing: a well-reviewed
// business with no independent official website. All three conditions must
// hold; there is no partial credit.
func IsOpportunity(e BusinessEntity) bool {
	if e.WebsiteStatus == StatusOfficial {
		return false
	}
	return e.Rating >= minOpportunityRating && e.ReviewCount >= minOpportunityReviews
}
