package maps

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"ghosthunter/internal/leads"
)

const (
	searchBaseURL = "https://www.google.com/maps/search/"
	feedSelector  = `div[role="feed"]`
)

// ErrNoResults means the results feed never materialized for a query. The
// session is still released; callers usually degrade to an empty result
// rather than failing their run.
var ErrNoResults = eris.New("maps: results feed never appeared")

// SkipReason tags why a rendered card contributed no record.
type SkipReason string

const (
	SkipEmptyLabel SkipReason = "empty_label"
	SkipDuplicate  SkipReason = "duplicate"
	SkipActivation SkipReason = "activation_failed"
	SkipExtraction SkipReason = "extraction_failed"
)

// cardOutcome is the tagged per-card result: either an extracted record or a
// skip with its reason. Skips never abort the run.
type cardOutcome struct {
	record  leads.RawRecord
	skipped bool
	reason  SkipReason
}

func skipped(reason SkipReason) cardOutcome {
	return cardOutcome{skipped: true, reason: reason}
}

// accumulator owns the state of one harvesting run: the seen-name set used
// for dedup across scroll passes, the collected records, and skip counters.
// It is created per Search call and discarded with it.
type accumulator struct {
	seen    map[string]struct{}
	records []leads.RawRecord
	skips   map[SkipReason]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		seen:  make(map[string]struct{}),
		skips: make(map[SkipReason]int),
	}
}

// HarvesterConfig tunes the waits of the harvesting loop. The settle delays
// are backpressure against the source's lazy rendering, not rate limiting;
// tests run them at zero.
type HarvesterConfig struct {
	// FeedTimeout bounds the wait for the results container after navigation.
	FeedTimeout time.Duration
	// SettleDelay is the pause after activating a card, letting the detail
	// pane load before extraction.
	SettleDelay time.Duration
	// ScrollDelay is the pause after scrolling the feed, letting new cards
	// render before the next enumeration.
	ScrollDelay time.Duration
}

func (c HarvesterConfig) withDefaults() HarvesterConfig {
	if c.FeedTimeout <= 0 {
		c.FeedTimeout = 15 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = time.Second
	}
	if c.ScrollDelay <= 0 {
		c.ScrollDelay = 2 * time.Second
	}
	return c
}

// Harvester drives one browser session through a map search, scrolling the
// results feed and extracting each not-yet-seen card until a target count is
// reached or the source is exhausted.
type Harvester struct {
	newSession SessionFactory
	cfg        HarvesterConfig
	log        *zap.Logger
}

func NewHarvester(factory SessionFactory, cfg HarvesterConfig, log *zap.Logger) *Harvester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Harvester{newSession: factory, cfg: cfg.withDefaults(), log: log}
}

// Search harvests up to limit raw records for a query. The session is scoped
// to the call and released on every exit path. A feed that never appears
// returns ErrNoResults; a scroll pass that reveals nothing unseen ends the
// run normally with whatever was collected.
func (h *Harvester) Search(ctx context.Context, query string, limit int) ([]leads.RawRecord, error) {
	if limit <= 0 {
		return nil, eris.New("maps: limit must be positive")
	}

	session, err := h.newSession(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "maps: open session")
	}
	defer session.Close()

	log := h.log.With(zap.String("query", query))

	if err := session.Navigate(ctx, searchBaseURL+url.QueryEscape(query)); err != nil {
		return nil, eris.Wrap(err, "maps: navigate to search")
	}
	if err := session.WaitVisible(ctx, feedSelector, h.cfg.FeedTimeout); err != nil {
		return nil, ErrNoResults
	}

	acc := newAccumulator()
	for {
		if err := ctx.Err(); err != nil {
			return acc.records, err
		}

		labels, err := session.CardLabels(ctx)
		if err != nil {
			return acc.records, eris.Wrap(err, "maps: enumerate cards")
		}
		if len(labels) == 0 {
			break
		}

		progressed := false
		for _, label := range labels {
			if len(acc.records) >= limit {
				break
			}
			outcome := h.processCard(ctx, session, label, acc)
			if outcome.skipped {
				acc.skips[outcome.reason]++
				// A fresh label that failed still counts as new content.
				if outcome.reason == SkipActivation || outcome.reason == SkipExtraction {
					log.Debug("card skipped",
						zap.String("card", label),
						zap.String("reason", string(outcome.reason)))
					progressed = true
				}
				continue
			}
			acc.records = append(acc.records, outcome.record)
			progressed = true
			log.Debug("card extracted",
				zap.String("name", outcome.record.Name),
				zap.Float64("rating", outcome.record.Rating),
				zap.Int("reviews", outcome.record.ReviewCount))
		}

		if len(acc.records) >= limit {
			break
		}
		if !progressed {
			// Scroll exhausted: every rendered card was already seen.
			break
		}
		if err := session.ScrollFeed(ctx); err != nil {
			log.Debug("scroll failed, ending run", zap.Error(err))
			break
		}
		h.pause(ctx, h.cfg.ScrollDelay)
	}

	log.Info("harvest complete",
		zap.Int("records", len(acc.records)),
		zap.Int("duplicates", acc.skips[SkipDuplicate]),
		zap.Int("failed_cards", acc.skips[SkipActivation]+acc.skips[SkipExtraction]))
	return acc.records, nil
}

// processCard handles one rendered card: dedup by accessible label, activate
// it, let the detail pane settle, and extract.
func (h *Harvester) processCard(ctx context.Context, session Session, label string, acc *accumulator) cardOutcome {
	name := strings.TrimSpace(label)
	if name == "" {
		return skipped(SkipEmptyLabel)
	}
	if _, dup := acc.seen[name]; dup {
		return skipped(SkipDuplicate)
	}
	acc.seen[name] = struct{}{}

	if err := session.OpenCard(ctx, label); err != nil {
		return skipped(SkipActivation)
	}
	h.pause(ctx, h.cfg.SettleDelay)

	record, err := extractRecord(ctx, session, name)
	if err != nil {
		return skipped(SkipExtraction)
	}
	return cardOutcome{record: record}
}

func (h *Harvester) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
