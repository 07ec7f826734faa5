// Package pipeline sequences the stages and owns the retry and
// regeneration policy.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rascaffold/internal/chunker"
	"rascaffold/internal/concept"
	"rascaffold/internal/config"
	"rascaffold/internal/extractor"
	"rascaffold/internal/llm"
	"rascaffold/internal/quality"
	"rascaffold/internal/reading"
	"rascaffold/internal/scaffold"
)

// State names the pipeline stage machine's positions.
type State string

const (
	StateExtracting   State = "extracting"
	StateChunking     State = "chunking"
	StateSummarizing  State = "summarizing"
	StateScaffolding  State = "scaffolding"
	StateEvaluating   State = "evaluating"
	StateRegenerating State = "regenerating"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Reference is an optional knowledge-base file merged into the chunk
// sequence alongside the main document.
type Reference struct {
	Name string
	Data []byte
}

// Input is one document-processing request. Requests are independent and
// share nothing; all intermediate state lives on the stack of Run.
type Input struct {
	Data       []byte
	Format     extractor.Format
	Name       string
	Objectives string
	References []Reference
}

// Controller wires the stages together. The generator handle is the only
// shared resource and is treated as a read-only, reentrant-safe client.
type Controller struct {
	gen llm.Generator
	cfg config.Config
	log zerolog.Logger
}

func New(gen llm.Generator, cfg config.Config, log zerolog.Logger) *Controller {
	return &Controller{gen: gen, cfg: cfg, log: log}
}

// Run executes one full pipeline pass. It either returns a complete
// PipelineResult or a classified *Error — partial results are never
// exposed.
func (c *Controller) Run(ctx context.Context, in Input) (*reading.PipelineResult, error) {
	log := c.log.With().Str("run_id", uuid.NewString()).Logger()

	fail := func(stage State, err error) (*reading.PipelineResult, error) {
		perr := Classify(stage, err)
		log.Error().Str("state", string(StateFailed)).Str("kind", string(perr.Kind)).Err(err).Msg(perr.Message)
		return nil, perr
	}

	// Extracting.
	log.Info().Str("state", string(StateExtracting)).Str("format", string(in.Format)).Int("bytes", len(in.Data)).Msg("run started")
	doc, err := extractor.Extract(in.Data, in.Format, in.Name)
	if err != nil {
		return fail(StateExtracting, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(StateExtracting, err)
	}

	// Chunking.
	log.Info().Str("state", string(StateChunking)).Msg("document extracted")
	chunkCfg := chunker.Config{
		MaxChunkSize: c.cfg.Chunking.MaxChunkSize,
		OverlapSize:  c.cfg.Chunking.OverlapSize,
	}
	chunks, err := chunker.Split(doc.Text, "", chunkCfg, 0)
	if err != nil {
		return fail(StateChunking, err)
	}
	chunks = c.appendReferences(chunks, in.References, chunkCfg, log)
	log.Info().Int("chunks", len(chunks)).Msg("chunking complete")
	if err := ctx.Err(); err != nil {
		return fail(StateChunking, err)
	}

	// Summarizing.
	log.Info().Str("state", string(StateSummarizing)).Msg("extracting concepts")
	conceptEx := concept.NewExtractor(c.gen, c.cfg.Concept, log)
	summary, err := conceptEx.Run(ctx, chunks, in.Objectives)
	if err != nil {
		return fail(StateSummarizing, err)
	}
	contextChunks := chunksByIndex(chunks, summary.Selected)
	log.Info().Int("selected", len(contextChunks)).Int("themes", len(summary.Themes)).Msg("concept summary ready")

	// Scaffolding / Evaluating with bounded regeneration.
	scaffolder := scaffold.NewScaffolder(c.gen, log)
	evaluator := quality.NewEvaluator(c.gen, c.cfg.Quality.PassThreshold, log)

	type attempt struct {
		questions [4]reading.DimensionQuestion
		report    reading.EvaluationReport
		score     int
	}
	var best *attempt
	maxAttempts := 1 + c.cfg.Pipeline.RegenLimit
	attempts := 0
	feedback := ""

	for i := 1; i <= maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return fail(StateScaffolding, err)
		}
		state := StateScaffolding
		if i > 1 {
			log.Info().Str("state", string(StateRegenerating)).Int("attempt", i).Msg("regenerating questions")
			state = StateRegenerating
		} else {
			log.Info().Str("state", string(StateScaffolding)).Msg("generating questions")
		}
		attempts = i

		questions, err := scaffolder.Run(ctx, summary, contextChunks, in.Objectives, feedback)
		if err != nil {
			var incomplete *scaffold.ErrIncomplete
			if errors.As(err, &incomplete) && i < maxAttempts {
				log.Warn().Err(err).Msg("scaffold attempt incomplete, regenerating")
				feedback = incomplete.Error()
				continue
			}
			// Once a scored attempt exists, a failing regeneration pass must
			// not sink the run: keep the best attempt and degrade.
			if best != nil && !isCanceled(err) {
				log.Warn().Err(err).Int("attempt", i).Msg("regeneration failed, keeping best attempt")
				break
			}
			if errors.As(err, &incomplete) {
				return fail(state, &llm.ParseError{Err: err})
			}
			return fail(state, err)
		}

		log.Info().Str("state", string(StateEvaluating)).Int("attempt", i).Msg("evaluating questions")
		report, err := evaluator.Run(ctx, questions, summary, contextChunks)
		if err != nil {
			if best != nil && !isCanceled(err) {
				log.Warn().Err(err).Int("attempt", i).Msg("evaluation failed during regeneration, keeping best attempt")
				break
			}
			return fail(StateEvaluating, err)
		}

		total := 0
		for _, s := range report.Scores {
			total += s.Score
		}
		// Strictly greater keeps the earliest attempt on ties, which makes
		// reruns with a deterministic backend stable.
		if best == nil || total > best.score {
			best = &attempt{questions: questions, report: report, score: total}
		}
		if report.Pass {
			best = &attempt{questions: questions, report: report, score: total}
			break
		}

		feedback = remediationNotes(report)
		log.Warn().Int("attempt", i).Int("total_score", total).Msg("quality gate failed")
	}

	if best == nil {
		// Every attempt failed to produce four distinguishable dimensions.
		return fail(StateScaffolding, &llm.ParseError{Err: errors.New("no scaffold attempt produced all four dimensions")})
	}

	result := &reading.PipelineResult{
		Summary:    summary,
		Context:    contextChunks,
		Questions:  best.questions,
		Evaluation: best.report,
		Degraded:   !best.report.Pass,
		Attempts:   attempts,
	}
	log.Info().Str("state", string(StateDone)).Bool("degraded", result.Degraded).Int("attempts", attempts).Msg("run complete")
	return result, nil
}

// appendReferences extracts and chunks optional knowledge-base files,
// continuing the main document's chunk numbering. Files that fail to parse
// are skipped with a warning — references enrich a run, they never sink it.
func (c *Controller) appendReferences(chunks []reading.Chunk, refs []Reference, cfg chunker.Config, log zerolog.Logger) []reading.Chunk {
	for _, ref := range refs {
		format, ok := extractor.FormatForFile(ref.Name)
		if !ok {
			log.Warn().Str("reference", ref.Name).Msg("skipping reference with unsupported extension")
			continue
		}
		doc, err := extractor.Extract(ref.Data, format, ref.Name)
		if err != nil {
			log.Warn().Str("reference", ref.Name).Err(err).Msg("skipping unreadable reference")
			continue
		}
		refChunks, err := chunker.Split(doc.Text, ref.Name, cfg, len(chunks))
		if err != nil {
			log.Warn().Str("reference", ref.Name).Err(err).Msg("skipping reference")
			continue
		}
		chunks = append(chunks, refChunks...)
	}
	return chunks
}

// isCanceled reports whether the caller asked to stop; cancellation always
// ends the run, even when a degradable attempt exists.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func chunksByIndex(chunks []reading.Chunk, indices []int) []reading.Chunk {
	byIndex := make(map[int]reading.Chunk, len(chunks))
	for _, c := range chunks {
		byIndex[c.Index] = c
	}
	var out []reading.Chunk
	for _, idx := range indices {
		if c, ok := byIndex[idx]; ok {
			out = append(out, c)
		}
	}
	return out
}

// remediationNotes turns a failing report into feedback for the next
// scaffold attempt.
func remediationNotes(report reading.EvaluationReport) string {
	var sb strings.Builder
	for _, s := range report.Scores {
		if s.Rationale == "" {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(s.Dimension.String())
		sb.WriteString(": ")
		sb.WriteString(s.Rationale)
		sb.WriteString("\n")
	}
	if report.Summary != "" {
		sb.WriteString(report.Summary)
	}
	return sb.String()
}
