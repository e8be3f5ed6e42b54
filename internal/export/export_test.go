package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghosthunter/internal/leads"
	"ghosthunter/internal/outreach"
)

func sampleLeads() []leads.BusinessEntity {
	return []leads.BusinessEntity{
		{
			Name:             "Ghost Cafe",
			Category:         "Cafes",
			Location:         "Pune, IN",
			Rating:           4.8,
			ReviewCount:      200,
			Phone:            "+91 98765 43210",
			WebsiteStatus:    leads.StatusNone,
			PerformanceScore: 90.39,
		},
		{
			Name:             "Linktree Diner",
			Category:         "Cafes",
			Location:         "Pune, IN",
			Rating:           4.4,
			ReviewCount:      60,
			URL:              "https://linktr.ee/ltd",
			WebsiteStatus:    leads.StatusSocialOnly,
			PerformanceScore: 76.75,
		},
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "leads_italian_restaurants_vadodara_in.csv",
		Filename("Italian Restaurants", "Vadodara, IN"))
	assert.Equal(t, "leads_cafes_pune.csv", Filename("Cafes", "Pune"))
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, WriteCSV(path, sampleLeads()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"Ghost Cafe", "Cafes", "Pune, IN", "4.8", "200", "",
		"+91 98765 43210", "NONE", "90.39",
	}, rows[1])
	assert.Equal(t, "https://linktr.ee/ltd", rows[2][5])
	assert.Equal(t, "SOCIAL_ONLY", rows[2][7])
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, WriteJSON(path, sampleLeads()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []leads.BusinessEntity
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Ghost Cafe", decoded[0].Name)
	assert.Equal(t, leads.StatusSocialOnly, decoded[1].WebsiteStatus)
}

func TestWriteCampaign(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.json")
	emails := []outreach.Email{
		{To: "a@b.example", Subject: "Hello", Body: "Hi there", Company: "Ghost Cafe"},
	}
	require.NoError(t, WriteCampaign(path, emails))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []outreach.Email
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Ghost Cafe", decoded[0].Company)
}

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	Preview(&buf, sampleLeads(), 1)

	out := buf.String()
	assert.Contains(t, out, "Top 1 opportunities")
	assert.Contains(t, out, "Ghost Cafe")
	assert.NotContains(t, out, "Linktree Diner")

	buf.Reset()
	Preview(&buf, sampleLeads(), 10)
	assert.Contains(t, buf.String(), "Linktree Diner")
	assert.Contains(t, buf.String(), "no phone listed")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, sampleLeads())
	assert.Equal(t, "2 opportunities found (1 without any website, 1 on social profiles only).\n", buf.String())
}
