package collector

import (
	"context"
	"log/slog"

	"poeweights/lib/scrapers/poetrade"
	"poeweights/services/catalog"

	"go.opentelemetry.io/otel/codes"
)

// ThresholdRange bounds one attribute-requirement stratum on a
// stratified search, inclusive on both ends.
type ThresholdRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultThresholdRanges spreads strata across the attribute-requirement
// spectrum so a single price-sorted search does not dominate the sample.
var DefaultThresholdRanges = []ThresholdRange{
	{0, 50},
	{51, 100},
	{101, 150},
	{151, 200},
}

// Trade site stat ids for the flat attribute modifiers.
var attributeStatIds = map[catalog.Attribute]string{
	catalog.Strength:     "explicit.stat_3299347043",
	catalog.Dexterity:    "explicit.stat_1284417561",
	catalog.Intelligence: "explicit.stat_4220027924",
}

var stratifiedAttributes = []catalog.Attribute{
	catalog.Strength,
	catalog.Dexterity,
	catalog.Intelligence,
}

// StratifiedQueries derives one attribute-filtered search per attribute
// and threshold range from the base query. Everything else on the base
// query (category filter, sort, status) is preserved.
func StratifiedQueries(base poetrade.SearchRequest, ranges []ThresholdRange) []poetrade.SearchRequest {
	if len(ranges) == 0 {
		ranges = DefaultThresholdRanges
	}

	queries := make([]poetrade.SearchRequest, 0, len(stratifiedAttributes)*len(ranges))
	for _, attr := range stratifiedAttributes {
		for _, r := range ranges {
			min, max := r.Min, r.Max
			query := base
			query.Query.Stats = []poetrade.StatFilter{{
				Type: "and",
				Filters: []poetrade.StatFilterValue{{
					Id:    attributeStatIds[attr],
					Value: &poetrade.StatValue{Min: &min, Max: &max},
				}},
			}}
			queries = append(queries, query)
		}
	}
	return queries
}

// CollectStratified runs one Collect per attribute and threshold range
// and merges the reports. The limit applies per stratum. A failed
// stratum aborts the run; the strata already ingested stay persisted.
func (s Service) CollectStratified(ctx context.Context, client *poetrade.Client, base poetrade.SearchRequest, ranges []ThresholdRange, limit int) (IngestReport, error) {
	ctx, span := tracer.Start(ctx, "CollectStratified")
	defer span.End()

	var merged IngestReport
	for i, query := range StratifiedQueries(base, ranges) {
		report, err := s.Collect(ctx, client, query, limit)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return merged, err
		}

		filter := query.Query.Stats[0].Filters[0]
		slog.InfoContext(ctx, "stratum collected",
			"stratum", i,
			"stat_id", filter.Id,
			"min", *filter.Value.Min,
			"max", *filter.Value.Max,
			"ingested", report.Ingested)
		merged = mergeIngestReports(merged, report)
	}
	return merged, nil
}

func mergeIngestReports(a, b IngestReport) IngestReport {
	return IngestReport{
		Received:        a.Received + b.Received,
		Ingested:        a.Ingested + b.Ingested,
		SkippedUnknown:  a.SkippedUnknown + b.SkippedUnknown,
		SkippedStale:    a.SkippedStale + b.SkippedStale,
		UnknownBaseItem: append(a.UnknownBaseItem, b.UnknownBaseItem...),
	}
}
