package maps

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghosthunter/internal/leads"
)

type fakeCard struct {
	label       string
	ratingLabel string
	website     string
	phone       string
	failOpen    bool
	failExtract bool
}

// fakeSession simulates a virtualized results feed: each scroll advances to
// the next enumeration pass, and old cards stay rendered.
type fakeSession struct {
	passes  [][]fakeCard
	passIdx int
	opened  *fakeCard

	waitErr error
	navErr  error

	scrolls int
	closed  bool
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error { return s.navErr }

func (s *fakeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.waitErr
}

func (s *fakeSession) currentPass() []fakeCard {
	if len(s.passes) == 0 {
		return nil
	}
	idx := s.passIdx
	if idx >= len(s.passes) {
		idx = len(s.passes) - 1
	}
	return s.passes[idx]
}

func (s *fakeSession) CardLabels(ctx context.Context) ([]string, error) {
	cards := s.currentPass()
	labels := make([]string, 0, len(cards))
	for _, c := range cards {
		labels = append(labels, c.label)
	}
	return labels, nil
}

func (s *fakeSession) OpenCard(ctx context.Context, label string) error {
	cards := s.currentPass()
	for i := range cards {
		card := &cards[i]
		if card.label == label {
			if card.failOpen {
				return eris.New("click intercepted")
			}
			s.opened = card
			return nil
		}
	}
	return eris.New("card not rendered")
}

func (s *fakeSession) FirstAttribute(ctx context.Context, selector, attr string) (string, bool, error) {
	if s.opened == nil {
		return "", false, nil
	}
	if s.opened.failExtract {
		return "", false, eris.New("target crashed")
	}
	var value string
	switch selector {
	case ratingSelector:
		value = s.opened.ratingLabel
	case websiteSelector:
		value = s.opened.website
	case phoneSelector:
		value = s.opened.phone
	}
	return value, value != "", nil
}

func (s *fakeSession) ScrollFeed(ctx context.Context) error {
	s.scrolls++
	if s.passIdx < len(s.passes)-1 {
		s.passIdx++
	}
	return nil
}

func (s *fakeSession) Close() { s.closed = true }

func testHarvester(session Session) *Harvester {
	factory := func(ctx context.Context) (Session, error) { return session, nil }
	return NewHarvester(factory, HarvesterConfig{
		FeedTimeout: time.Second,
		SettleDelay: time.Nanosecond,
		ScrollDelay: time.Nanosecond,
	}, nil)
}

func TestSearch_ExtractsRenderedCards(t *testing.T) {
	session := &fakeSession{passes: [][]fakeCard{{
		{label: "Trattoria Roma", ratingLabel: "4.8 stars 1,204 Reviews", phone: "Phone: +91 98765 43210"},
		{label: "Cafe Blue", ratingLabel: "4.1 stars 87 Reviews", website: "https://cafeblue.example"},
	}}}

	records, err := testHarvester(session).Search(context.Background(), "cafes in Vadodara", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, leads.RawRecord{
		Name:        "Trattoria Roma",
		Rating:      4.8,
		ReviewCount: 1204,
		Phone:       "+91 98765 43210",
	}, records[0])
	assert.Equal(t, "https://cafeblue.example", records[1].URL)
	assert.True(t, session.closed, "session must be released")
}

func TestSearch_DedupsAcrossScrollPasses(t *testing.T) {
	first := []fakeCard{
		{label: "Alpha", ratingLabel: "4.5 stars 120 Reviews"},
		{label: "Beta", ratingLabel: "4.0 stars 30 Reviews"},
	}
	second := append(append([]fakeCard{}, first...), fakeCard{
		label: "Gamma", ratingLabel: "4.9 stars 15 Reviews",
	})
	session := &fakeSession{passes: [][]fakeCard{first, second}}

	records, err := testHarvester(session).Search(context.Background(), "q", 10)
	require.NoError(t, err)

	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names)
}

func TestSearch_TerminatesWhenScrollRevealsNothingNew(t *testing.T) {
	cards := []fakeCard{{label: "Only One", ratingLabel: "4.2 stars 44 Reviews"}}
	session := &fakeSession{passes: [][]fakeCard{cards, cards, cards}}

	done := make(chan struct{})
	var records []leads.RawRecord
	var err error
	go func() {
		records, err = testHarvester(session).Search(context.Background(), "q", 50)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("harvest did not terminate on a stagnant feed")
	}

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.LessOrEqual(t, session.scrolls, 2)
}

func TestSearch_StopsAtLimitMidPass(t *testing.T) {
	session := &fakeSession{passes: [][]fakeCard{{
		{label: "A", ratingLabel: "4.5 stars 100 Reviews"},
		{label: "B", ratingLabel: "4.5 stars 100 Reviews"},
		{label: "C", ratingLabel: "4.5 stars 100 Reviews"},
	}}}

	records, err := testHarvester(session).Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Zero(t, session.scrolls)
}

func TestSearch_SkipsFailingCardsAndEmptyLabels(t *testing.T) {
	session := &fakeSession{passes: [][]fakeCard{{
		{label: ""},
		{label: "Broken Click", failOpen: true},
		{label: "Broken Pane", failExtract: true},
		{label: "Survivor", ratingLabel: "4.6 stars 300 Reviews"},
	}}}

	records, err := testHarvester(session).Search(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Survivor", records[0].Name)
}

func TestSearch_EmptyFeedReturnsNothing(t *testing.T) {
	session := &fakeSession{passes: [][]fakeCard{{}}}

	records, err := testHarvester(session).Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, session.closed)
}

func TestSearch_FeedNeverAppears(t *testing.T) {
	session := &fakeSession{waitErr: context.DeadlineExceeded}

	records, err := testHarvester(session).Search(context.Background(), "q", 10)
	require.ErrorIs(t, err, ErrNoResults)
	assert.Empty(t, records)
	assert.True(t, session.closed, "session released on the error path too")
}

func TestSearch_RejectsNonPositiveLimit(t *testing.T) {
	session := &fakeSession{}
	_, err := testHarvester(session).Search(context.Background(), "q", 0)
	assert.Error(t, err)
	assert.False(t, session.closed, "no session should be opened")
}
