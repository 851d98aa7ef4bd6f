package notes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/pkg/types"
)

const (
	stageEnrichFeatures = "enrich_features"
	stageEnrichChanges  = "enrich_changes"
)

type enrichItem struct {
	SHA         string `json:"sha" description:"sha of the input commit, copied exactly"`
	Title       string `json:"title" description:"3 to 6 words, title case, no type prefix"`
	Description string `json:"description" description:"1 to 2 sentences on the user impact"`
}

type featuresResponse struct {
	Entries []enrichItem `json:"entries"`
}

type changesResponse struct {
	Fixes       []enrichItem `json:"fixes"`
	Performance []enrichItem `json:"performance"`
	Maintenance []enrichItem `json:"maintenance"`
}

// EnrichFeatures rewrites feature commits into title/description pairs. An
// empty input returns an empty result without calling the collaborator.
func (w *AIWriter) EnrichFeatures(ctx context.Context, features []types.ClassifiedCommit, instructions string) ([]types.EnrichedCommit, error) {
	if len(features) == 0 {
		return []types.EnrichedCommit{}, nil
	}
	if err := distinctInputs(stageEnrichFeatures, classifiedSHAs(features)); err != nil {
		return nil, err
	}

	var resp featuresResponse
	err := w.client.GenerateObject(ctx, llm.Request{
		Name:   stageEnrichFeatures,
		System: enrichSystemPrompt,
		User:   buildFeaturesPrompt(features, instructions),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("enrich features: %w", err)
	}

	bySHA, err := indexEnriched(stageEnrichFeatures, resp.Entries)
	if err != nil {
		return nil, err
	}

	enriched, err := rebuildBucket(stageEnrichFeatures, features, bySHA)
	if err != nil {
		return nil, err
	}
	if len(bySHA) > 0 {
		return nil, unknownLeftover(stageEnrichFeatures, bySHA)
	}

	w.logger.Info("enriched features", zap.Int("entries", len(enriched)))
	return enriched, nil
}

// EnrichChanges rewrites fixes, performance and maintenance commits in one
// call and partitions the result back into the original buckets.
func (w *AIWriter) EnrichChanges(ctx context.Context, in ChangesInput) (types.EnrichedChanges, error) {
	out := types.EnrichedChanges{
		Fixes:       []types.EnrichedCommit{},
		Performance: []types.EnrichedCommit{},
		Maintenance: []types.EnrichedCommit{},
	}
	if in.Empty() {
		return out, nil
	}
	shas := classifiedSHAs(in.Fixes)
	shas = append(shas, classifiedSHAs(in.Performance)...)
	shas = append(shas, classifiedSHAs(in.Maintenance)...)
	if err := distinctInputs(stageEnrichChanges, shas); err != nil {
		return types.EnrichedChanges{}, err
	}

	var resp changesResponse
	err := w.client.GenerateObject(ctx, llm.Request{
		Name:   stageEnrichChanges,
		System: enrichSystemPrompt,
		User:   buildChangesPrompt(in),
	}, &resp)
	if err != nil {
		return types.EnrichedChanges{}, fmt.Errorf("enrich changes: %w", err)
	}

	// Membership follows the input buckets, not the bucket the model chose.
	all := make([]enrichItem, 0, len(resp.Fixes)+len(resp.Performance)+len(resp.Maintenance))
	all = append(all, resp.Fixes...)
	all = append(all, resp.Performance...)
	all = append(all, resp.Maintenance...)

	bySHA, err := indexEnriched(stageEnrichChanges, all)
	if err != nil {
		return types.EnrichedChanges{}, err
	}

	if out.Fixes, err = rebuildBucket(stageEnrichChanges, in.Fixes, bySHA); err != nil {
		return types.EnrichedChanges{}, err
	}
	if out.Performance, err = rebuildBucket(stageEnrichChanges, in.Performance, bySHA); err != nil {
		return types.EnrichedChanges{}, err
	}
	if out.Maintenance, err = rebuildBucket(stageEnrichChanges, in.Maintenance, bySHA); err != nil {
		return types.EnrichedChanges{}, err
	}
	if len(bySHA) > 0 {
		return types.EnrichedChanges{}, unknownLeftover(stageEnrichChanges, bySHA)
	}

	w.logger.Info("enriched changes",
		zap.Int("fixes", len(out.Fixes)),
		zap.Int("performance", len(out.Performance)),
		zap.Int("maintenance", len(out.Maintenance)),
	)
	return out, nil
}

func classifiedSHAs(commits []types.ClassifiedCommit) []string {
	shas := make([]string, len(commits))
	for i, c := range commits {
		shas[i] = c.SHA
	}
	return shas
}

func indexEnriched(stage string, items []enrichItem) (map[string]enrichItem, error) {
	bySHA := make(map[string]enrichItem, len(items))
	for _, item := range items {
		if _, dup := bySHA[item.SHA]; dup {
			return nil, contractErr(stage, ReasonDuplicateCommit, "sha %q enriched twice", item.SHA)
		}
		bySHA[item.SHA] = item
	}
	return bySHA, nil
}

// rebuildBucket consumes the entries for commits from bySHA, keeping input order.
func rebuildBucket(stage string, commits []types.ClassifiedCommit, bySHA map[string]enrichItem) ([]types.EnrichedCommit, error) {
	out := make([]types.EnrichedCommit, 0, len(commits))
	for _, c := range commits {
		item, ok := bySHA[c.SHA]
		if !ok {
			return nil, contractErr(stage, ReasonMissingCommit, "sha %q was not enriched", c.SHA)
		}
		delete(bySHA, c.SHA)

		title := cleanMessage(item.Title)
		if title == "" {
			return nil, contractErr(stage, ReasonEmptyField, "sha %q has an empty title", c.SHA)
		}
		description := strings.TrimSpace(item.Description)
		if description == "" {
			return nil, contractErr(stage, ReasonEmptyField, "sha %q has an empty description", c.SHA)
		}

		out = append(out, types.EnrichedCommit{
			SHA:         c.SHA,
			Type:        c.Type,
			Title:       title,
			Description: description,
			Breaking:    c.Breaking,
			PullRequest: c.PullRequest,
		})
	}
	return out, nil
}

func unknownLeftover(stage string, bySHA map[string]enrichItem) error {
	for sha := range bySHA {
		return contractErr(stage, ReasonUnknownCommit, "sha %q was not in the input", sha)
	}
	return nil
}
