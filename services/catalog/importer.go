package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"poeweights/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/catalog")

// Importer populates the catalog from the trade site's static data
// endpoint (base items) and an HTML tier reference page (modifiers).
type Importer struct {
	store Store
	http  *resty.Client
}

func NewImporter(store Store, baseUrl string) Importer {
	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "services/catalog/http")

	return Importer{
		store: store,
		http:  client,
	}
}

type siteItemEntry struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type siteItemGroup struct {
	Id      string          `json:"id"`
	Label   string          `json:"label"`
	Entries []siteItemEntry `json:"entries"`
}

type siteItemData struct {
	Result []siteItemGroup `json:"result"`
}

// ImportBaseItems fetches the base item list from the trade site's
// static data endpoint and upserts every entry.
func (im Importer) ImportBaseItems(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "ImportBaseItems")
	defer span.End()

	var data siteItemData
	res, err := im.http.R().
		SetContext(ctx).
		SetResult(&data).
		Get("/api/trade/data/items")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if res.IsError() {
		err := fmt.Errorf("static item data request failed: %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	count := 0
	for _, group := range data.Result {
		category := CategoryFromSite(group.Id)
		for _, entry := range group.Entries {
			if entry.Type == "" {
				continue
			}

			item := BaseItem{
				Name:     entry.Type,
				Category: category,
			}
			// unique items are listed under their display name with
			// the base in `type`, keep the display name as an alias
			if entry.Name != "" && entry.Name != entry.Type {
				item.Tags = append(item.Tags, "alias:"+entry.Name)
			}

			err := im.store.SaveBaseItem(ctx, item)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return count, err
			}
			count++
		}
	}

	slog.InfoContext(ctx, "imported base items", "count", count)
	return count, nil
}

// ImportModifierTiers scrapes a modifier tier table from an HTML
// reference page. Expected row shape: modifier text template, tier
// number, one `min-max` range per numeric component, and an optional
// "crafted" marker.
func (im Importer) ImportModifierTiers(ctx context.Context, path string) (int, error) {
	ctx, span := tracer.Start(ctx, "ImportModifierTiers")
	defer span.End()

	res, err := im.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if res.IsError() {
		err := fmt.Errorf("tier reference request failed: %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	count := 0
	var saveErr error
	doc.Find("table.mod-table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		def, ok := parseTierRow(row)
		if !ok {
			slog.WarnContext(ctx, "skipping unparsable tier row", "html", row.Text())
			return true
		}

		saveErr = im.store.SaveModifier(ctx, def)
		if saveErr != nil {
			return false
		}
		count++
		return true
	})
	if saveErr != nil {
		span.RecordError(saveErr)
		span.SetStatus(codes.Error, saveErr.Error())
		return count, saveErr
	}

	slog.InfoContext(ctx, "imported modifier tiers", "count", count)
	return count, nil
}

func parseTierRow(row *goquery.Selection) (ModifierDefinition, bool) {
	name := strings.TrimSpace(row.Find("td.mod-name").Text())
	if name == "" {
		return ModifierDefinition{}, false
	}

	def := ModifierDefinition{Name: name}

	tierText := strings.TrimSpace(row.Find("td.mod-tier").Text())
	tierText = strings.TrimPrefix(tierText, "T")
	if tierText != "" && tierText != "-" {
		tier, err := strconv.Atoi(tierText)
		if err != nil {
			return ModifierDefinition{}, false
		}
		def.Tier = tier
	}

	rangeText := strings.TrimSpace(row.Find("td.mod-range").Text())
	if rangeText != "" && rangeText != "-" {
		for _, part := range strings.Split(rangeText, ",") {
			r, ok := parseRollRange(part)
			if !ok {
				return ModifierDefinition{}, false
			}
			def.Rolls = append(def.Rolls, r)
		}
	}

	def.Crafted = strings.EqualFold(
		strings.TrimSpace(row.Find("td.mod-crafted").Text()), "crafted",
	)
	return def, true
}

func parseRollRange(s string) (RollRange, bool) {
	s = strings.TrimSpace(s)
	// "20-29", "(20-29)", "0.4-0.6"; a leading minus belongs to the bound
	s = strings.Trim(s, "()")
	if s == "" {
		return RollRange{}, false
	}
	idx := strings.Index(s[1:], "-")
	if idx < 0 {
		// single fixed value
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return RollRange{}, false
		}
		return RollRange{Min: v, Max: v}, true
	}
	idx++

	minv, err := strconv.ParseFloat(strings.TrimSpace(s[:idx]), 64)
	if err != nil {
		return RollRange{}, false
	}
	maxv, err := strconv.ParseFloat(strings.TrimSpace(s[idx+1:]), 64)
	if err != nil {
		return RollRange{}, false
	}
	return RollRange{Min: minv, Max: maxv}, true
}
