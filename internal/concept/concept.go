// Package concept implements the first agent stage: deriving a structured
// summary of the document and selecting the chunks most relevant to the
// caller's learning objectives.
package concept

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"rascaffold/internal/config"
	"rascaffold/internal/llm"
	"rascaffold/internal/reading"
)

// Extractor runs concept extraction over the chunk sequence.
type Extractor struct {
	gen llm.Generator
	cfg config.ConceptConfig
	log zerolog.Logger
}

func NewExtractor(gen llm.Generator, cfg config.ConceptConfig, log zerolog.Logger) *Extractor {
	return &Extractor{gen: gen, cfg: cfg, log: log}
}

// response is the structured output contract for one extraction call.
type response struct {
	Keywords []string `json:"keywords"`
	Themes   []struct {
		Name     string `json:"name"`
		Evidence string `json:"evidence"`
	} `json:"themes"`
	SelectedChunks []int `json:"selected_chunks"`
}

// Run produces the ConceptSummary. Small documents get a single holistic
// pass; larger ones are processed as concurrent batches merged
// deterministically by chunk index.
func (e *Extractor) Run(ctx context.Context, chunks []reading.Chunk, objectives string) (reading.ConceptSummary, error) {
	if len(chunks) <= e.cfg.BatchSize {
		var resp response
		if err := llm.GenerateJSON(ctx, e.gen, buildPrompt(chunks, objectives), &resp, e.log); err != nil {
			return reading.ConceptSummary{}, err
		}
		return e.merge(chunks, []response{resp}), nil
	}

	batches := batchChunks(chunks, e.cfg.BatchSize)
	results := make([]response, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrent)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			var resp response
			if err := llm.GenerateJSON(gctx, e.gen, buildPrompt(batch, objectives), &resp, e.log); err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reading.ConceptSummary{}, err
	}
	return e.merge(chunks, results), nil
}

func batchChunks(chunks []reading.Chunk, size int) [][]reading.Chunk {
	var batches [][]reading.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// merge combines batch responses into one summary. Batches are visited in
// order, duplicates keep their first occurrence, and selected indices end
// up validated, deduplicated, and ascending — identical model output always
// yields an identical summary.
func (e *Extractor) merge(chunks []reading.Chunk, results []response) reading.ConceptSummary {
	valid := make(map[int]bool, len(chunks))
	for _, c := range chunks {
		valid[c.Index] = true
	}

	var summary reading.ConceptSummary
	seenKeyword := map[string]bool{}
	seenTheme := map[string]bool{}
	seenIndex := map[int]bool{}

	for _, r := range results {
		for _, kw := range r.Keywords {
			kw = strings.TrimSpace(kw)
			key := strings.ToLower(kw)
			if kw == "" || seenKeyword[key] {
				continue
			}
			seenKeyword[key] = true
			summary.Keywords = append(summary.Keywords, kw)
		}
		for _, th := range r.Themes {
			name := strings.TrimSpace(th.Name)
			key := strings.ToLower(name)
			if name == "" || seenTheme[key] {
				continue
			}
			seenTheme[key] = true
			summary.Themes = append(summary.Themes, reading.Theme{
				Name:     name,
				Evidence: strings.TrimSpace(th.Evidence),
			})
		}
		for _, idx := range r.SelectedChunks {
			if !valid[idx] || seenIndex[idx] {
				continue
			}
			seenIndex[idx] = true
			summary.Selected = append(summary.Selected, idx)
		}
	}

	sort.Ints(summary.Selected)
	if len(summary.Selected) > e.cfg.MaxSelected {
		summary.Selected = summary.Selected[:e.cfg.MaxSelected]
	}

	// A parsable response with no usable selection degrades to the leading
	// chunks rather than failing the stage.
	if len(summary.Selected) == 0 {
		n := len(chunks)
		if n > 3 {
			n = 3
		}
		for _, c := range chunks[:n] {
			summary.Selected = append(summary.Selected, c.Index)
		}
		e.log.Warn().Int("fallback_chunks", n).Msg("model selected no chunks, falling back to leading chunks")
	}

	return summary
}
