// Package bundler implements the bundler command: it assembles a prompt
// bundle from JSON documents on disk and writes the result to stdout or a
// file.
package bundler

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/refs"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/rules"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/scope"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/service"
	entrypoint "github.com/Daakon/stone-caster-2-sub004/internal/platform/cmd"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage/memory"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage/sqlite"
)

// fileRulesetID names the synthetic ruleset built from a -rules file.
const fileRulesetID = "file"

// Config holds bundler command configuration.
type Config struct {
	SkeletonPath   string `env:"STONECASTER_BUNDLER_SKELETON"`
	ContextPath    string `env:"STONECASTER_BUNDLER_CONTEXT"`
	RulesPath      string `env:"STONECASTER_BUNDLER_RULES"`
	DBPath         string `env:"STONECASTER_BUNDLER_DB"`
	RulesetID      string `env:"STONECASTER_BUNDLER_RULESET"`
	Locale         string `env:"STONECASTER_BUNDLER_LOCALE"`
	ReferencesPath string
	ReferenceCap   int
	OutPath        string
}

// ParseConfig loads environment defaults and parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.SkeletonPath, "skeleton", cfg.SkeletonPath, "path to the skeleton JSON document")
	fs.StringVar(&cfg.ContextPath, "context", cfg.ContextPath, "path to the scope context JSON document")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "path to a rules JSON array (ignored when -db is set)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to a ruleset database")
	fs.StringVar(&cfg.RulesetID, "ruleset", cfg.RulesetID, "ruleset id to use (default: the active ruleset)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "requested bundle locale")
	fs.StringVar(&cfg.ReferencesPath, "references", "", "path to a reference sources JSON document")
	fs.IntVar(&cfg.ReferenceCap, "reference-cap", 0, "maximum collected references (0 = default)")
	fs.StringVar(&cfg.OutPath, "out", "", "output file (default: stdout)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if cfg.SkeletonPath == "" {
		return Config{}, fmt.Errorf("-skeleton is required")
	}
	if cfg.ContextPath == "" {
		return Config{}, fmt.Errorf("-context is required")
	}
	if cfg.DBPath == "" && cfg.RulesPath == "" {
		return Config{}, fmt.Errorf("one of -rules or -db is required")
	}
	return cfg, nil
}

// output is the bundler's JSON result envelope.
type output struct {
	Bundle   any            `json:"bundle"`
	Metrics  bundle.Metrics `json:"metrics"`
	Report   rules.Report   `json:"report"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Run assembles a bundle from the configured documents and writes the
// result envelope to out, or to cfg.OutPath when set.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBundler, func(ctx context.Context) error {
		req, err := buildRequest(cfg)
		if err != nil {
			return err
		}

		rulesets, packs, cleanup, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		svc := service.New(rulesets, packs, service.Policy{ReferenceCap: cfg.ReferenceCap})
		outcome, err := svc.Assemble(ctx, req)
		if err != nil {
			return err
		}

		return writeOutput(cfg.OutPath, out, output{
			Bundle:   outcome.Bundle,
			Metrics:  outcome.Metrics,
			Report:   outcome.Report,
			Warnings: outcome.Warnings,
		})
	})
}

func buildRequest(cfg Config) (service.Request, error) {
	skeleton, err := readJSON(cfg.SkeletonPath)
	if err != nil {
		return service.Request{}, fmt.Errorf("read skeleton: %w", err)
	}

	documents, err := readDocuments(cfg.ContextPath)
	if err != nil {
		return service.Request{}, fmt.Errorf("read context: %w", err)
	}

	var sources refs.Sources
	if cfg.ReferencesPath != "" {
		raw, err := os.ReadFile(cfg.ReferencesPath)
		if err != nil {
			return service.Request{}, fmt.Errorf("read references: %w", err)
		}
		if err := json.Unmarshal(raw, &sources); err != nil {
			return service.Request{}, fmt.Errorf("decode references: %w", err)
		}
	}

	rulesetID := cfg.RulesetID
	if cfg.DBPath == "" {
		rulesetID = fileRulesetID
	}

	return service.Request{
		Skeleton:   skeleton,
		Documents:  documents,
		RulesetID:  rulesetID,
		Locale:     cfg.Locale,
		References: sources,
	}, nil
}

// readDocuments decodes the context file, a JSON object mapping scope names
// to source documents. A document's "id" field, when present, keys locale
// pack lookups.
func readDocuments(path string) ([]service.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var byScope map[string]any
	if err := json.Unmarshal(raw, &byScope); err != nil {
		return nil, err
	}

	documents := make([]service.Document, 0, len(byScope))
	for _, name := range scope.Names() {
		body, ok := byScope[string(name)]
		if !ok {
			continue
		}
		delete(byScope, string(name))
		documents = append(documents, service.Document{
			Scope: name,
			ID:    documentID(body),
			Body:  body,
		})
	}
	for name := range byScope {
		return nil, fmt.Errorf("unknown scope %q", name)
	}
	return documents, nil
}

func documentID(body any) string {
	doc, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := doc["id"].(string)
	return id
}

func openStores(cfg Config) (storage.RulesetStore, storage.LocalePackStore, func(), error) {
	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open database: %w", err)
		}
		return store, store, func() { _ = store.Close() }, nil
	}

	ruleList, err := readRules(cfg.RulesPath)
	if err != nil {
		return nil, nil, nil, err
	}
	store := memory.NewStore()
	record := storage.RulesetRecord{ID: fileRulesetID, Name: cfg.RulesPath, Rules: ruleList, Active: true}
	if err := store.PutRuleset(context.Background(), record); err != nil {
		return nil, nil, nil, err
	}
	return store, store, func() {}, nil
}

func readRules(path string) ([]rules.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var ruleList []rules.Rule
	if err := json.Unmarshal(raw, &ruleList); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return ruleList, nil
}

func readJSON(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func writeOutput(path string, out io.Writer, result output) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	encoded = append(encoded, '\n')

	if path != "" {
		return os.WriteFile(path, encoded, 0o644)
	}
	if out == nil {
		out = io.Discard
	}
	_, err = out.Write(encoded)
	return err
}
