// Package rulesetimporter implements the ruleset-importer command: it loads
// ruleset and locale pack JSON files into the bundle configuration store.
package rulesetimporter

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/pointer"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/rules"
	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/scope"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage"
	storagesqlite "github.com/Daakon/stone-caster-2-sub004/internal/storage/sqlite"
)

// Config holds configuration for the ruleset importer.
type Config struct {
	RulesetPath string
	PacksDir    string
	DBPath      string
	Activate    bool
	DryRun      bool
}

// ParseConfig parses CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		DBPath: filepath.Join("data", "bundle-config.db"),
	}

	fs.StringVar(&cfg.RulesetPath, "ruleset", "", "ruleset JSON file to import")
	fs.StringVar(&cfg.PacksDir, "packs", "", "directory of locale pack JSON files to import")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "configuration database path")
	fs.BoolVar(&cfg.Activate, "activate", false, "mark the imported ruleset as active")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.RulesetPath) == "" && strings.TrimSpace(cfg.PacksDir) == "" {
		return Config{}, errors.New("one of ruleset or packs is required")
	}

	return cfg, nil
}

// rulesetFile is the on-disk ruleset document.
type rulesetFile struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Version int          `json:"version"`
	Rules   []rules.Rule `json:"rules"`
}

// packFile is the on-disk locale pack document.
type packFile struct {
	DocType string         `json:"docType"`
	DocID   string         `json:"docId"`
	Locale  string         `json:"locale"`
	Payload map[string]any `json:"payload"`
}

// Run executes the importer using the provided Config.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	var ruleset *rulesetFile
	if strings.TrimSpace(cfg.RulesetPath) != "" {
		loaded, err := readRuleset(cfg.RulesetPath)
		if err != nil {
			return err
		}
		ruleset = &loaded
	}

	var packs []packFile
	if strings.TrimSpace(cfg.PacksDir) != "" {
		loaded, err := readPacks(cfg.PacksDir)
		if err != nil {
			return err
		}
		packs = loaded
	}

	if cfg.DryRun {
		_, err := fmt.Fprintf(out, "validated %d ruleset(s) and %d locale pack(s)\n", rulesetCount(ruleset), len(packs))
		return err
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open configuration store: %w", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	if ruleset != nil {
		record := storage.RulesetRecord{
			ID:        ruleset.ID,
			Name:      ruleset.Name,
			Version:   ruleset.Version,
			Active:    cfg.Activate,
			Rules:     ruleset.Rules,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.PutRuleset(ctx, record); err != nil {
			return fmt.Errorf("put ruleset %s: %w", ruleset.ID, err)
		}
	}
	for _, pack := range packs {
		record := storage.LocalePackRecord{
			DocType:   pack.DocType,
			DocID:     pack.DocID,
			Locale:    pack.Locale,
			Payload:   pack.Payload,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.PutLocalePack(ctx, record); err != nil {
			return fmt.Errorf("put locale pack %s/%s/%s: %w", pack.DocType, pack.DocID, pack.Locale, err)
		}
	}

	_, err = fmt.Fprintf(out, "imported %d ruleset(s) and %d locale pack(s) into %s\n", rulesetCount(ruleset), len(packs), cfg.DBPath)
	return err
}

func rulesetCount(ruleset *rulesetFile) int {
	if ruleset == nil {
		return 0
	}
	return 1
}

func readRuleset(path string) (rulesetFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return rulesetFile{}, fmt.Errorf("read ruleset: %w", err)
	}
	var ruleset rulesetFile
	if err := json.Unmarshal(raw, &ruleset); err != nil {
		return rulesetFile{}, fmt.Errorf("decode ruleset: %w", err)
	}
	if err := validateRuleset(ruleset); err != nil {
		return rulesetFile{}, fmt.Errorf("validate ruleset %s: %w", path, err)
	}
	return ruleset, nil
}

func validateRuleset(ruleset rulesetFile) error {
	if strings.TrimSpace(ruleset.ID) == "" {
		return errors.New("ruleset id is required")
	}
	for i, rule := range ruleset.Rules {
		if _, err := pointer.Parse(rule.From); err != nil {
			return fmt.Errorf("rule %d from: %w", i, err)
		}
		if _, err := pointer.Parse(rule.To); err != nil {
			return fmt.Errorf("rule %d to: %w", i, err)
		}
	}
	return nil
}

func readPacks(dir string) ([]packFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read packs dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	packs := make([]packFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pack %s: %w", name, err)
		}
		var pack packFile
		if err := json.Unmarshal(raw, &pack); err != nil {
			return nil, fmt.Errorf("decode pack %s: %w", name, err)
		}
		if err := validatePack(pack); err != nil {
			return nil, fmt.Errorf("validate pack %s: %w", name, err)
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

func validatePack(pack packFile) error {
	if !scope.Valid(scope.Name(pack.DocType)) {
		return fmt.Errorf("unknown doc type %q", pack.DocType)
	}
	if strings.TrimSpace(pack.DocID) == "" {
		return errors.New("doc id is required")
	}
	if strings.TrimSpace(pack.Locale) == "" {
		return errors.New("locale is required")
	}
	if len(pack.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}
