package collector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"poeweights/lib/scrapers/poetrade"
	"poeweights/lib/textutil"
	"poeweights/lib/workerpool"
	"poeweights/services/catalog"
	"poeweights/services/collector/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/collector")

// Service owns the collected listings store and the ingest + match
// stages of the pipeline. Catalog reads go through the catalog store's
// immutable index, loaded once per run.
type Service struct {
	db      *sql.DB
	qry     *db.Queries
	catalog catalog.Store
	workers int
}

func NewService(database *sql.DB, catalogStore catalog.Store, workers int) Service {
	if workers <= 0 {
		workers = 4
	}
	return Service{
		db:      database,
		qry:     db.New(database),
		catalog: catalogStore,
		workers: workers,
	}
}

// IngestReport summarizes one ingestion batch. Skips are per-record,
// never fatal.
type IngestReport struct {
	Received        int
	Ingested        int
	SkippedUnknown  int
	SkippedStale    int
	UnknownBaseItem []string
}

// Collect searches the trade site, fetches up to limit listings and
// ingests them. The network client owns rate limiting and retries.
func (s Service) Collect(ctx context.Context, client *poetrade.Client, query poetrade.SearchRequest, limit int) (IngestReport, error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	search, err := client.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IngestReport{}, err
	}

	if limit > 0 && len(search.Result) > limit {
		search.Result = search.Result[:limit]
	}
	results, err := client.FetchAll(ctx, search)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IngestReport{}, err
	}

	now := time.Now()
	listings := make([]RawListing, 0, len(results))
	for _, res := range results {
		listings = append(listings, ListingFromTrade(res, now))
	}
	return s.Ingest(ctx, listings)
}

// Ingest resolves each raw listing against the catalog and upserts it
// keyed on trade id. Listings whose base item is not in the catalog
// are logged with the nearest catalog name and skipped. Re-ingesting a
// trade id only replaces the stored record when the new one is newer.
func (s Service) Ingest(ctx context.Context, listings []RawListing) (IngestReport, error) {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	index, err := s.catalog.LoadIndex(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return IngestReport{}, err
	}

	report := IngestReport{Received: len(listings)}
	for _, listing := range listings {
		base, ok := index.ResolveBase(listing.BaseName)
		if !ok {
			report.SkippedUnknown++
			report.UnknownBaseItem = append(report.UnknownBaseItem, listing.BaseName)

			nearest, similarity, found := index.NearestBaseName(listing.BaseName)
			if found {
				slog.WarnContext(ctx, "unknown base item",
					"trade_id", listing.TradeId,
					"base", listing.BaseName,
					"nearest", nearest,
					"similarity", similarity)
			} else {
				slog.WarnContext(ctx, "unknown base item",
					"trade_id", listing.TradeId,
					"base", listing.BaseName)
			}
			continue
		}

		err := s.saveListing(ctx, listing, base)
		if errors.Is(err, sql.ErrNoRows) {
			report.SkippedStale++
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		report.Ingested++
	}

	slog.InfoContext(ctx, "ingest finished",
		"received", report.Received,
		"ingested", report.Ingested,
		"skipped_unknown", report.SkippedUnknown,
		"skipped_stale", report.SkippedStale)
	return report, nil
}

func (s Service) saveListing(ctx context.Context, listing RawListing, base catalog.BaseItem) error {
	stats := make(map[string][]float64, len(listing.StatLines))
	for _, line := range listing.StatLines {
		stats[line] = textutil.ExtractValues(line)
	}
	crafted := make(map[string][]float64, len(listing.CraftedLines))
	for _, line := range listing.CraftedLines {
		crafted[line] = textutil.ExtractValues(line)
	}

	statsJson, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	craftedJson, err := json.Marshal(crafted)
	if err != nil {
		return err
	}
	requirements, err := json.Marshal(listing.StatRequirements)
	if err != nil {
		return err
	}
	attributes, err := json.Marshal(listing.AttributeValues)
	if err != nil {
		return err
	}

	params := db.UpsertCollectedItemParams{
		TradeID:          listing.TradeId,
		BaseItem:         base.Name,
		Stats:            string(statsJson),
		CraftedStats:     string(craftedJson),
		Corrupted:        listing.Corrupted,
		StatRequirements: string(requirements),
		AttributeValues:  string(attributes),
		CollectedAt:      listing.CollectedAt.Unix(),
	}
	if listing.DisplayName != "" {
		params.Name = sql.NullString{String: listing.DisplayName, Valid: true}
	}
	if listing.Price != nil {
		params.PriceAmount = sql.NullFloat64{Float64: listing.Price.Amount, Valid: true}
		params.PriceCurrency = sql.NullString{String: listing.Price.Currency, Valid: true}
	}

	_, err = s.qry.UpsertCollectedItem(ctx, params)
	return err
}

// RunReport summarizes one match run over stored listings.
type RunReport struct {
	Processed    int
	MatchedLines int
	Skipped      map[MatchKind]int
	Failures     []MatchFailure
}

// MatchFailure carries enough context to review a skipped line against
// the catalog.
type MatchFailure struct {
	TradeId    string
	Line       string
	Kind       MatchKind
	Values     []float64
	Candidates []string
}

type matchPartial struct {
	report  RunReport
	results map[int64][]MatchedModifier
}

// Match resolves the stat lines of every listing collected since the
// given time and persists the resulting modifier instances. Listings
// are independent, so matching is partitioned across workers; the
// report merge and the writes are the single serialization point.
func (s Service) Match(ctx context.Context, since time.Time) (RunReport, error) {
	ctx, span := tracer.Start(ctx, "Match")
	defer span.End()

	index, err := s.catalog.LoadIndex(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunReport{}, err
	}

	rows, err := s.qry.ListCollectedItemsSince(ctx, since.Unix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunReport{}, err
	}

	items := make([]ObservedItem, 0, len(rows))
	report := RunReport{Skipped: map[MatchKind]int{}}
	for _, row := range rows {
		item, err := itemFromRow(row, index)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		items = append(items, item)
	}

	matcher := NewMatcher(index)
	partials, err := workerpool.Do(ctx, s.workers, items,
		func(_ context.Context, part []ObservedItem) (matchPartial, error) {
			return matchPartition(matcher, part), nil
		})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	for _, partial := range partials {
		report.Processed += partial.report.Processed
		report.MatchedLines += partial.report.MatchedLines
		for kind, count := range partial.report.Skipped {
			report.Skipped[kind] += count
		}
		report.Failures = append(report.Failures, partial.report.Failures...)

		for itemId, matched := range partial.results {
			err = s.saveMatches(ctx, itemId, matched)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return report, err
			}
		}
	}

	slog.InfoContext(ctx, "match finished",
		"processed", report.Processed,
		"matched_lines", report.MatchedLines,
		"ambiguous", report.Skipped[MatchAmbiguous],
		"out_of_range", report.Skipped[MatchOutOfRange],
		"no_match", report.Skipped[MatchNone])
	return report, nil
}

func matchPartition(matcher Matcher, items []ObservedItem) matchPartial {
	partial := matchPartial{
		report:  RunReport{Skipped: map[MatchKind]int{}},
		results: make(map[int64][]MatchedModifier),
	}
	for _, item := range items {
		matched, results := matcher.MatchItem(item)
		partial.report.Processed++
		partial.report.MatchedLines += len(matched)
		partial.results[item.Id] = matched

		for _, result := range results {
			if result.Kind == MatchOk {
				continue
			}
			partial.report.Skipped[result.Kind]++

			candidates := make([]string, 0, len(result.Candidates))
			for _, def := range result.Candidates {
				candidates = append(candidates, def.Key())
			}
			partial.report.Failures = append(partial.report.Failures, MatchFailure{
				TradeId:    item.TradeId,
				Line:       result.Line,
				Kind:       result.Kind,
				Values:     result.Values,
				Candidates: candidates,
			})
		}
	}
	return partial
}

func (s Service) saveMatches(ctx context.Context, itemId int64, matched []MatchedModifier) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qry := s.qry.WithTx(tx)
	err = qry.DeleteItemModifiers(ctx, itemId)
	if err != nil {
		return err
	}
	for _, m := range matched {
		values, err := json.Marshal(m.Values)
		if err != nil {
			return err
		}
		err = qry.InsertItemModifier(ctx, db.InsertItemModifierParams{
			ItemID:         itemId,
			ModifierName:   m.Definition.Name,
			ModifierTier:   int64(m.Definition.Tier),
			ModifierValues: string(values),
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListMatchRecords returns every persisted modifier instance since the
// given time joined with its item's base, category and price, the
// input shape of the aggregation stage.
func (s Service) ListMatchRecords(ctx context.Context, since time.Time) ([]MatchRecord, error) {
	ctx, span := tracer.Start(ctx, "ListMatchRecords")
	defer span.End()

	index, err := s.catalog.LoadIndex(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rows, err := s.qry.ListCollectedItemsSince(ctx, since.Unix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	itemsById := make(map[int64]db.CollectedItem, len(rows))
	for _, row := range rows {
		itemsById[row.ID] = row
	}

	mods, err := s.qry.ListItemModifiersSince(ctx, since.Unix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	records := make([]MatchRecord, 0, len(mods))
	for _, mod := range mods {
		item, ok := itemsById[mod.ItemID]
		if !ok {
			continue
		}

		record := MatchRecord{
			TradeId:      item.TradeID,
			BaseItem:     item.BaseItem,
			ModifierName: mod.ModifierName,
			Tier:         int(mod.ModifierTier),
		}
		err = json.Unmarshal([]byte(mod.ModifierValues), &record.Values)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if base, ok := index.ResolveBase(item.BaseItem); ok {
			record.Category = base.Category
		}
		if item.PriceAmount.Valid {
			record.Price = &Price{
				Amount:   item.PriceAmount.Float64,
				Currency: item.PriceCurrency.String,
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func itemFromRow(row db.CollectedItem, index *catalog.Index) (ObservedItem, error) {
	item := ObservedItem{
		Id:          row.ID,
		TradeId:     row.TradeID,
		DisplayName: row.Name.String,
		Corrupted:   row.Corrupted,
		CollectedAt: time.Unix(row.CollectedAt, 0),
	}
	if base, ok := index.ResolveBase(row.BaseItem); ok {
		item.Base = base
	} else {
		item.Base = catalog.BaseItem{Name: row.BaseItem}
	}
	if row.PriceAmount.Valid {
		item.Price = &Price{
			Amount:   row.PriceAmount.Float64,
			Currency: row.PriceCurrency.String,
		}
	}

	err := json.Unmarshal([]byte(row.Stats), &item.Stats)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal([]byte(row.CraftedStats), &item.CraftedStats)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal([]byte(row.StatRequirements), &item.StatRequirements)
	if err != nil {
		return item, err
	}
	err = json.Unmarshal([]byte(row.AttributeValues), &item.AttributeValues)
	if err != nil {
		return item, err
	}
	return item, nil
}
