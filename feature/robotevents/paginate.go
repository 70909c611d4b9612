package robotevents

import (
	"context"

	"go.uber.org/zap"
)

const (
	// PerPage is the provider's maximum page size.
	PerPage = 250
	// maxPages is an absolute safety ceiling on pagination.
	maxPages = 1000
)

// PageFunc fetches one page of a paginated resource and returns the decoded
// response body.
type PageFunc func(ctx context.Context, page, perPage int) (any, error)

// CollectAll drives fetch across pages until exhaustion, producing a flat
// record list. It terminates when a page returns fewer than PerPage records
// or when the page ceiling is reached (logged as a safety stop, not an
// error). Responses may be a bare list, a wrapped {data: [...]} object, or a
// single non-list object (treated as a one-element result).
func CollectAll(ctx context.Context, logger *zap.Logger, fetch PageFunc) ([]map[string]any, error) {
	var all []map[string]any

	for page := 1; ; page++ {
		if page > maxPages {
			logger.Warn("Pagination ceiling reached, stopping",
				zap.Int("pages", maxPages),
				zap.Int("records", len(all)))
			return all, nil
		}

		raw, err := fetch(ctx, page, PerPage)
		if err != nil {
			return nil, err
		}

		items, last := extractItems(raw)
		all = append(all, items...)
		if last || len(items) < PerPage {
			return all, nil
		}
	}
}

// extractItems normalizes the three response shapes into a record list.
// last reports that pagination must stop regardless of the item count.
func extractItems(raw any) (items []map[string]any, last bool) {
	switch t := raw.(type) {
	case []any:
		return asRecords(t), false
	case map[string]any:
		data, wrapped := t["data"]
		if !wrapped {
			// A single non-list object is a one-element result.
			return []map[string]any{t}, true
		}
		list, ok := data.([]any)
		if !ok {
			// A data field that is not a list means zero results.
			return nil, true
		}
		return asRecords(list), false
	default:
		return nil, true
	}
}

func asRecords(list []any) []map[string]any {
	records := make([]map[string]any, 0, len(list))
	for _, el := range list {
		if rec, ok := el.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}
