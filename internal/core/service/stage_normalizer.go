package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdesk/identity/internal/api/metrics"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

// StageNormalizer rewrites role stage lists to canonical stage ids.
type StageNormalizer struct {
	repo ports.StageRepository
	log  zerolog.Logger
}

func NewStageNormalizer(repo ports.StageRepository, log zerolog.Logger) *StageNormalizer {
	return &StageNormalizer{repo: repo, log: log}
}

// Normalize keeps canonical entries and treats every other entry as a
// production stage row reference, mapped through the stage name. Entries
// that cannot be mapped are dropped. The result is sorted and free of
// duplicates.
func (n *StageNormalizer) Normalize(ctx context.Context, allowed []string) []string {
	canonical := make(map[string]struct{}, len(allowed))
	var legacy []string
	dropped := 0

	for _, raw := range allowed {
		id := strings.TrimSpace(raw)
		switch {
		case id == "":
			continue
		case domain.IsCanonicalStageID(id):
			canonical[id] = struct{}{}
		case !slices.Contains(legacy, id):
			legacy = append(legacy, id)
		}
	}

	if len(legacy) > 0 {
		dropped += n.resolveLegacy(ctx, legacy, canonical)
	}

	if dropped > 0 {
		metrics.LegacyStagesDroppedTotal.Add(float64(dropped))
		n.log.Debug().Int("dropped", dropped).Msg("stage references without canonical mapping dropped")
	}

	out := make([]string, 0, len(canonical))
	for id := range canonical {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// resolveLegacy adds the canonical ids of legacy rows to dst and returns the
// number of entries that could not be mapped.
func (n *StageNormalizer) resolveLegacy(ctx context.Context, legacy []string, dst map[string]struct{}) int {
	rows, err := n.repo.FindByIDs(ctx, legacy)
	if err != nil {
		metrics.LookupFailuresTotal.WithLabelValues("stages").Inc()
		n.log.Warn().Err(err).Int("legacy_stages", len(legacy)).Msg("production stage lookup failed, legacy stages ignored")
		return len(legacy)
	}

	byID := make(map[string]domain.ProductionStage, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	dropped := 0
	for _, id := range legacy {
		row, ok := byID[id]
		if !ok {
			if !isStageRowID(id) {
				n.log.Debug().Str("stage_ref", id).Msg("stage reference is neither canonical nor a row id")
			}
			dropped++
			continue
		}
		canonicalID, ok := domain.CanonicalStageForName(row.Name)
		if !ok {
			n.log.Warn().Str("stage_id", id).Str("stage_name", row.Name).Msg("production stage name has no canonical id")
			dropped++
			continue
		}
		dst[canonicalID] = struct{}{}
	}
	return dropped
}

// isStageRowID reports whether id looks like a production_stages row id.
func isStageRowID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
