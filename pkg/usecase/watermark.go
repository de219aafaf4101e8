package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// timestamp layouts a store may use when it returns max(starred_at) as text.
// Layouts without zone are read as UTC.
var watermarkLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// WatermarkResolver derives per-source high-water marks from the sink
type WatermarkResolver struct {
	store interfaces.EventStore
}

// NewWatermarkResolver creates a resolver reading from store
func NewWatermarkResolver(store interfaces.EventStore) *WatermarkResolver {
	return &WatermarkResolver{store: store}
}

// Resolve returns max(starred_at) per source in UTC. A missing table yields an empty mapping.
func (r *WatermarkResolver) Resolve(ctx context.Context) (model.Watermark, error) {
	logger := ctxlog.From(ctx)
	watermark := make(model.Watermark)

	exists, err := r.store.TableExists(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check event table")
	}
	if !exists {
		logger.Info("Event table does not exist yet, no watermark")
		return watermark, nil
	}

	groups, err := r.store.MaxStarredAt(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query max starred_at")
	}

	for _, g := range groups {
		t, ok, err := normalizeTimestamp(g.Value)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid watermark value", goerr.V("source", g.Group))
		}
		if !ok {
			continue
		}
		watermark[g.Group] = t
	}

	logger.Debug("Resolved watermarks", "sources", len(watermark))
	return watermark, nil
}

// normalizeTimestamp converts a value returned by a store into a UTC time.
// ok is false for NULL.
func normalizeTimestamp(v any) (time.Time, bool, error) {
	switch value := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		if value.IsZero() {
			return time.Time{}, false, nil
		}
		return value.UTC(), true, nil
	case *time.Time:
		if value == nil {
			return time.Time{}, false, nil
		}
		return normalizeTimestamp(*value)
	case []byte:
		return normalizeTimestamp(string(value))
	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range watermarkLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true, nil
			}
		}
		return time.Time{}, false, goerr.New("unparsable timestamp", goerr.V("value", value))
	default:
		return time.Time{}, false, goerr.New("unsupported timestamp type", goerr.V("value", v))
	}
}
