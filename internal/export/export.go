package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"ghosthunter/internal/leads"
	"ghosthunter/internal/outreach"
)

var csvHeader = []string{
	"name",
	"category",
	"location",
	"rating",
	"review_count",
	"url",
	"phone",
	"website_status",
	"performance_score",
}

// Filename derives a stable output name from the search terms, e.g.
// "leads_italian_restaurants_vadodara_in.csv".
func Filename(category, location string) string {
	slug := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, ",", "")
		return strings.ReplaceAll(s, " ", "_")
	}
	return fmt.Sprintf("leads_%s_%s.csv", slug(category), slug(location))
}

// WriteCSV writes the lead list to path, one row per business.
func WriteCSV(path string, entities []leads.BusinessEntity) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}
	for _, entity := range entities {
		row := []string{
			entity.Name,
			entity.Category,
			entity.Location,
			strconv.FormatFloat(entity.Rating, 'f', 1, 64),
			strconv.Itoa(entity.ReviewCount),
			entity.URL,
			entity.Phone,
			string(entity.WebsiteStatus),
			strconv.FormatFloat(entity.PerformanceScore, 'f', 2, 64),
		}
		if err := writer.Write(row); err != nil {
			return eris.Wrapf(err, "export: write row for %s", entity.Name)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "export: flush CSV")
	}
	return nil
}

// WriteJSON writes the lead list to path as an indented JSON array.
func WriteJSON(path string, entities []leads.BusinessEntity) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entities); err != nil {
		return eris.Wrap(err, "export: encode JSON")
	}
	return nil
}

// WriteCampaign writes generated outreach emails to path as indented JSON.
func WriteCampaign(path string, emails []outreach.Email) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(emails); err != nil {
		return eris.Wrap(err, "export: encode campaign")
	}
	return nil
}

// Preview prints the top n leads as a readable console summary.
func Preview(w io.Writer, entities []leads.BusinessEntity, n int) {
	if n <= 0 || n > len(entities) {
		n = len(entities)
	}
	fmt.Fprintf(w, "Top %d opportunities:\n", n)
	for i, entity := range entities[:n] {
		contact := entity.Phone
		if contact == "" {
			contact = "no phone listed"
		}
		fmt.Fprintf(w, "%2d. %-35s %5.2f pts  %.1f stars / %d reviews  [%s]  %s\n",
			i+1, entity.Name, entity.PerformanceScore, entity.Rating,
			entity.ReviewCount, entity.WebsiteStatus, contact)
	}
}

// Summary prints aggregate counts for a finished run.
func Summary(w io.Writer, entities []leads.BusinessEntity) {
	var none, socialOnly int
	for _, entity := range entities {
		switch entity.WebsiteStatus {
		case leads.StatusNone:
			none++
		case leads.StatusSocialOnly:
			socialOnly++
		}
	}
	fmt.Fprintf(w, "%d opportunities found (%d without any website, %d on social profiles only).\n",
		len(entities), none, socialOnly)
}
