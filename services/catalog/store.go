package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"poeweights/services/catalog/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func (s Store) SaveBaseItem(ctx context.Context, item BaseItem) error {
	requirements, err := json.Marshal(item.StatRequirements)
	if err != nil {
		return err
	}
	implicits, err := json.Marshal(item.ImplicitModifiers)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err = s.qry.UpsertBaseItem(ctx, db.UpsertBaseItemParams{
		Name:              item.Name,
		Category:          string(item.Category),
		StatRequirements:  string(requirements),
		ImplicitModifiers: string(implicits),
		BaseLevel:         int64(item.BaseLevel),
		Tags:              string(tags),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	return err
}

func (s Store) SaveModifier(ctx context.Context, def ModifierDefinition) error {
	rolls, err := json.Marshal(def.Rolls)
	if err != nil {
		return err
	}

	var requirements sql.NullString
	if def.StatRequirements != nil {
		encoded, err := json.Marshal(def.StatRequirements)
		if err != nil {
			return err
		}
		requirements = sql.NullString{String: string(encoded), Valid: true}
	}
	var scaling sql.NullString
	if def.AttributeScaling != nil {
		encoded, err := json.Marshal(def.AttributeScaling)
		if err != nil {
			return err
		}
		scaling = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err = s.qry.UpsertModifier(ctx, db.UpsertModifierParams{
		Name:             def.Name,
		Tier:             int64(def.Tier),
		ModifierValues:   string(rolls),
		IsCrafted:        def.Crafted,
		StatRequirements: requirements,
		AttributeScaling: scaling,
		CreatedAt:        time.Now().Unix(),
	})
	return err
}

func (s Store) ListBaseItems(ctx context.Context) ([]BaseItem, error) {
	rows, err := s.qry.ListBaseItems(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]BaseItem, 0, len(rows))
	for _, r := range rows {
		item := BaseItem{
			Name:      r.Name,
			Category:  Category(r.Category),
			BaseLevel: int(r.BaseLevel),
		}
		err = json.Unmarshal([]byte(r.StatRequirements), &item.StatRequirements)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal([]byte(r.ImplicitModifiers), &item.ImplicitModifiers)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal([]byte(r.Tags), &item.Tags)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s Store) ListModifiers(ctx context.Context) ([]ModifierDefinition, error) {
	rows, err := s.qry.ListModifiers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ModifierDefinition, 0, len(rows))
	for _, r := range rows {
		def := ModifierDefinition{
			Name:    r.Name,
			Tier:    int(r.Tier),
			Crafted: r.IsCrafted,
		}
		err = json.Unmarshal([]byte(r.ModifierValues), &def.Rolls)
		if err != nil {
			return nil, err
		}
		if r.StatRequirements.Valid {
			err = json.Unmarshal([]byte(r.StatRequirements.String), &def.StatRequirements)
			if err != nil {
				return nil, err
			}
		}
		if r.AttributeScaling.Valid {
			err = json.Unmarshal([]byte(r.AttributeScaling.String), &def.AttributeScaling)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, def)
	}
	return out, nil
}

// LoadIndex reads the whole catalog once and builds the immutable
// in-memory index the pipeline matches against.
func (s Store) LoadIndex(ctx context.Context) (*Index, error) {
	bases, err := s.ListBaseItems(ctx)
	if err != nil {
		return nil, err
	}
	mods, err := s.ListModifiers(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(bases, mods)
}
