package leads

import "math"

// Score blends review quality and volume into a 0-100 value. Quality and
// popularity each cap at 50 points; the volume half grows logarithmically so
// extra reviews past a few hundred add little. Zero reviews means no signal.
func Score(rating float64, reviews int) float64 {
	if reviews <= 0 {
		return 0
	}
	ratingComponent := (rating / 5.0) * 50
	volumeComponent := math.Min(50, math.Log(float64(reviews))*8)
	return math.Round((ratingComponent+volumeComponent)*100) / 100
}
