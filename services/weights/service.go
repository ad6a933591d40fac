package weights

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"poeweights/services/catalog"
	"poeweights/services/collector"
	"poeweights/services/weights/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/weights")

// Service runs aggregation + normalization over match records and
// persists the resulting weight table.
type Service struct {
	db      *sql.DB
	qry     *db.Queries
	catalog catalog.Store
	config  Config
	workers int
}

func NewService(database *sql.DB, catalogStore catalog.Store, config Config, workers int) Service {
	if workers <= 0 {
		workers = 4
	}
	return Service{
		db:      database,
		qry:     db.New(database),
		catalog: catalogStore,
		config:  config,
		workers: workers,
	}
}

// Run aggregates the given match records and normalizes them into
// weight estimates. When category is non-empty only that category's
// cells are normalized and persisted; categories are independent, so
// restricting the run never changes the numbers.
func (s Service) Run(ctx context.Context, records []collector.MatchRecord, category catalog.Category) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	err := s.config.Validate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	index, err := s.catalog.LoadIndex(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	aggregation, err := Aggregate(ctx, s.workers, s.config.PriceCurrency, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	cells := aggregation.Cells()
	if category != "" {
		filtered := cells[:0]
		for _, cell := range cells {
			if cell.Category == category {
				filtered = append(filtered, cell)
			}
		}
		cells = filtered
	}

	result := Normalize(cells, index, s.config)
	err = s.save(ctx, result, category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	slog.InfoContext(ctx, "normalization finished",
		"records", len(records),
		"cells", len(cells),
		"estimates", len(result.Estimates),
		"insufficient_categories", len(result.InsufficientCategories))
	return result, nil
}

// save replaces the stored table for the run's scope. Cells absent from
// this run must not survive with a stale run_at, so the scope's rows
// are cleared first, inside the same transaction as the inserts.
func (s Service) save(ctx context.Context, result Result, category catalog.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qry := s.qry.WithTx(tx)
	if category == "" {
		err = qry.DeleteWeightEstimates(ctx)
	} else {
		err = qry.DeleteWeightEstimatesByCategory(ctx, string(category))
	}
	if err != nil {
		return err
	}

	runAt := time.Now().Unix()
	for _, estimate := range result.Estimates {
		flags := estimate.Flags
		if flags == nil {
			flags = []string{}
		}
		encoded, err := json.Marshal(flags)
		if err != nil {
			return err
		}

		err = qry.UpsertWeightEstimate(ctx, db.UpsertWeightEstimateParams{
			BaseItem:     estimate.BaseItem,
			ModifierName: estimate.Modifier,
			ModifierTier: int64(estimate.Tier),
			Category:     string(estimate.Category),
			RawCount:     int64(estimate.RawCount),
			Weight:       estimate.Weight,
			Confidence:   string(estimate.Confidence),
			Flags:        string(encoded),
			RunAt:        runAt,
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListEstimates returns stored estimates, optionally filtered by
// category.
func (s Service) ListEstimates(ctx context.Context, category catalog.Category) ([]Estimate, error) {
	ctx, span := tracer.Start(ctx, "ListEstimates")
	defer span.End()

	var rows []db.WeightEstimate
	var err error
	if category == "" {
		rows, err = s.qry.ListWeightEstimates(ctx)
	} else {
		rows, err = s.qry.ListWeightEstimatesByCategory(ctx, string(category))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	estimates := make([]Estimate, 0, len(rows))
	for _, row := range rows {
		estimate := Estimate{
			BaseItem:   row.BaseItem,
			Modifier:   row.ModifierName,
			Tier:       int(row.ModifierTier),
			Category:   catalog.Category(row.Category),
			RawCount:   int(row.RawCount),
			Weight:     row.Weight,
			Confidence: Confidence(row.Confidence),
		}
		err = json.Unmarshal([]byte(row.Flags), &estimate.Flags)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		estimates = append(estimates, estimate)
	}
	return estimates, nil
}
