package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rascaffold/internal/config"
	"rascaffold/internal/extractor"
	"rascaffold/internal/llm"
	"rascaffold/internal/pipeline"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	filePath := flag.String("file", "", "Path to the document (.pdf/.docx/.txt)")
	objectivesPath := flag.String("objectives", "", "Optional path to a learning-objectives file (one per line)")
	refsDir := flag.String("refs", "", "Optional directory of knowledge-base reference files")
	configPath := flag.String("config", defaultConfigPath, "Path to the YAML config file")
	asJSON := flag.Bool("json", false, "Print the result record as JSON")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("please provide a document with -file")
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	in, err := buildInput(*filePath, *objectivesPath, *refsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("reading inputs")
	}

	gen, err := llm.New(cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing generation client")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := pipeline.New(gen, cfg, log.Logger)
	result, err := ctrl.Run(ctx, in)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}

	record := pipeline.Render(result)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record); err != nil {
			log.Fatal().Err(err).Msg("encoding result")
		}
		return
	}

	printSection("EXTRACTED INFO", record.ExtractedInfo)
	printSection("RELEVANT CONTEXT", record.RelevantContext)
	printSection("QUESTIONS", record.Questions)
	printSection("TEACHER PROMPTS", record.Prompts)
	printSection("EVALUATION", record.Evaluation)
}

func buildInput(filePath, objectivesPath, refsDir string) (pipeline.Input, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return pipeline.Input{}, fmt.Errorf("read document: %w", err)
	}
	format, ok := extractor.FormatForFile(filePath)
	if !ok {
		return pipeline.Input{}, fmt.Errorf("unsupported document type: %s", filepath.Ext(filePath))
	}

	in := pipeline.Input{
		Data:   data,
		Format: format,
		Name:   filepath.Base(filePath),
	}

	if objectivesPath != "" {
		objectives, err := os.ReadFile(objectivesPath)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read objectives: %w", err)
		}
		in.Objectives = string(objectives)
	}

	if refsDir != "" {
		entries, err := os.ReadDir(refsDir)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("read reference directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := extractor.FormatForFile(entry.Name()); !ok {
				log.Warn().Str("file", entry.Name()).Msg("skipping unsupported reference file")
				continue
			}
			refData, err := os.ReadFile(filepath.Join(refsDir, entry.Name()))
			if err != nil {
				log.Warn().Str("file", entry.Name()).Err(err).Msg("skipping unreadable reference file")
				continue
			}
			in.References = append(in.References, pipeline.Reference{
				Name: entry.Name(),
				Data: refData,
			})
		}
	}

	return in, nil
}

func printSection(title, body string) {
	fmt.Printf("=== %s ===\n%s\n\n", title, body)
}
