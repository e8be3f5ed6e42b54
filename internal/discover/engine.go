package discover

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"ghosthunter/internal/leads"
)

const defaultLimit = 20

// Harvester yields raw business records for a search query, up to limit.
type Harvester interface {
	Search(ctx context.Context, query string, limit int) ([]leads.RawRecord, error)
}

// Engine composes the harvester with classification, scoring and the
// opportunity filter to produce the final ranked lead list.
type Engine struct {
	harvester Harvester
	limit     int
	log       *zap.Logger
}

func NewEngine(harvester Harvester, limit int, log *zap.Logger) *Engine {
	if limit <= 0 {
		limit = defaultLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{harvester: harvester, limit: limit, log: log}
}

// Run discovers opportunity leads for one category/location pair, ordered by
// performance score descending (ties keep discovery order). A harvest that
// fails to establish a results view degrades to an empty list with a warning
// instead of an error; partial harvests are still processed.
func (e *Engine) Run(ctx context.Context, category, location string) ([]leads.BusinessEntity, error) {
	query := fmt.Sprintf("%s in %s", category, location)
	log := e.log.With(zap.String("query", query))
	log.Info("starting discovery", zap.Int("limit", e.limit))

	raw, err := e.harvester.Search(ctx, query, e.limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("harvest degraded", zap.Error(err), zap.Int("partial_records", len(raw)))
	}

	opportunities := make([]leads.BusinessEntity, 0, len(raw))
	for _, record := range raw {
		entity := leads.FromRaw(record, category, location)
		if !leads.IsOpportunity(entity) {
			log.Debug("lead rejected",
				zap.String("name", entity.Name),
				zap.String("website_status", string(entity.WebsiteStatus)),
				zap.Float64("rating", entity.Rating),
				zap.Int("reviews", entity.ReviewCount))
			continue
		}
		opportunities = append(opportunities, entity)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].PerformanceScore > opportunities[j].PerformanceScore
	})

	log.Info("discovery complete",
		zap.Int("harvested", len(raw)),
		zap.Int("opportunities", len(opportunities)))
	return opportunities, nil
}
