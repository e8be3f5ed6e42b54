package outreach

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"

	"ghosthunter/internal/enrich"
	"ghosthunter/internal/leads"
)

// Email is one ready-to-send outreach message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Company string `json:"company"`
}

// Generator composes personalized first-touch and follow-up emails for
// discovered leads, choosing a template from the lead's website situation.
type Generator struct {
	SenderName  string
	CompanyName string
	Website     string
}

type templateData struct {
	BusinessName string
	Category     string
	Location     string
	Rating       float64
	ReviewCount  int
	SenderName   string
	CompanyName  string
	Website      string
}

var noWebsiteSubjects = []string{
	"{{.BusinessName}} deserves a real website",
	"Your customers are searching for {{.BusinessName}} online",
	"Quick question about {{.BusinessName}}'s online presence",
}

var outdatedSubjects = []string{
	"Noticed something about {{.BusinessName}}'s website",
	"{{.BusinessName}}'s site could be costing you customers",
	"A quick website health check for {{.BusinessName}}",
}

var coldSubjects = []string{
	"Helping {{.Category}} businesses in {{.Location}} grow",
	"Idea for {{.BusinessName}}",
}

const noWebsiteBody = `Hi there,

I came across {{.BusinessName}} while researching {{.Category}} businesses in {{.Location}}. With a {{.Rating}} star rating across {{.ReviewCount}} reviews, you clearly have customers who love what you do.

What surprised me is that I couldn't find a dedicated website for {{.BusinessName}}. Right now, people searching for you online only find third-party listings, which means missed bookings and no control over your own story.

We build simple, fast websites for businesses exactly like yours. Would you be open to a 15-minute call this week to see what that could look like?

Best,
{{.SenderName}}
{{.CompanyName}}
{{.Website}}`

const outdatedBody = `Hi there,

I was looking at {{.BusinessName}}'s website and noticed a few things that are likely hurting you with mobile visitors and search rankings. Given your {{.Rating}} star reputation in {{.Location}}, the site isn't doing your business justice.

We specialize in modernizing sites for {{.Category}} businesses, keeping what works and fixing what doesn't. I put together a short list of specific improvements I'd be happy to walk you through.

Would a quick call this week work?

Best,
{{.SenderName}}
{{.CompanyName}}
{{.Website}}`

const coldBody = `Hi there,

{{.BusinessName}} caught my eye while I was researching {{.Category}} businesses in {{.Location}}. A {{.Rating}} star rating with {{.ReviewCount}} reviews is no accident.

We help businesses like yours turn that offline reputation into more customers online. If growing your web presence is on your radar this year, I'd love to share a couple of ideas, no strings attached.

Worth a quick chat?

Best,
{{.SenderName}}
{{.CompanyName}}
{{.Website}}`

const followUpEarlyBody = `Hi there,

Just floating my last note back to the top of your inbox. I know running {{.BusinessName}} keeps you busy.

If improving your online presence is on your list, I'm happy to work around your schedule.

Best,
{{.SenderName}}`

const followUpMidBody = `Hi there,

Following up once more about {{.BusinessName}}. I sketched out a rough homepage concept to show what a modern site could look like for you, free to look at either way.

Want me to send it over?

Best,
{{.SenderName}}`

const followUpFinalBody = `Hi there,

Last note from me, I promise. If a new website for {{.BusinessName}} isn't a priority right now, no problem at all.

If that changes down the road, you know where to find me.

All the best,
{{.SenderName}}
{{.CompanyName}}`

// Compose builds the first-touch email for a lead. Leads with no website get
// the no-website pitch; leads whose site analysis flagged a redesign get the
// outdated-site pitch; everything else gets the generic opener. The subject
// line is picked deterministically from the business name so reruns produce
// identical campaigns.
func (g *Generator) Compose(entity leads.BusinessEntity, analysis *enrich.WebsiteAnalysis, to string) (Email, error) {
	subjects, body := coldSubjects, coldBody
	switch {
	case entity.WebsiteStatus == leads.StatusNone:
		subjects, body = noWebsiteSubjects, noWebsiteBody
	case analysis != nil && analysis.NeedsRedesign:
		subjects, body = outdatedSubjects, outdatedBody
	}

	data := g.data(entity)
	subjectTmpl := subjects[len(entity.Name)%len(subjects)]

	subject, err := render("subject", subjectTmpl, data)
	if err != nil {
		return Email{}, err
	}
	rendered, err := render("body", body, data)
	if err != nil {
		return Email{}, err
	}

	return Email{To: to, Subject: subject, Body: rendered, Company: entity.Name}, nil
}

// FollowUp builds the nudge matching how long the lead has been quiet:
// a gentle bump inside three days, a concept offer inside a week, and a
// polite close-out after that.
func (g *Generator) FollowUp(entity leads.BusinessEntity, to string, daysSince int) (Email, error) {
	body := followUpFinalBody
	subject := "Closing the loop on " + entity.Name
	switch {
	case daysSince <= 3:
		body = followUpEarlyBody
		subject = "Re: " + entity.Name
	case daysSince <= 7:
		body = followUpMidBody
		subject = "A homepage concept for " + entity.Name
	}

	rendered, err := render("followup", body, g.data(entity))
	if err != nil {
		return Email{}, err
	}
	return Email{To: to, Subject: subject, Body: rendered, Company: entity.Name}, nil
}

func (g *Generator) data(entity leads.BusinessEntity) templateData {
	return templateData{
		BusinessName: entity.Name,
		Category:     strings.ToLower(entity.Category),
		Location:     entity.Location,
		Rating:       entity.Rating,
		ReviewCount:  entity.ReviewCount,
		SenderName:   g.SenderName,
		CompanyName:  g.CompanyName,
		Website:      g.Website,
	}
}

func render(name, text string, data templateData) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", eris.Wrapf(err, "outreach: parse %s template", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "outreach: render %s template", name)
	}
	return buf.String(), nil
}
