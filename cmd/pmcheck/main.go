// Command pmcheck loads a schema and a document from JSON, optionally
// applies a list of JSON steps to the document, checks the result against
// the schema, and prints it as JSON.
//
// Usage:
//
//	pmcheck --schema schema.json --doc doc.json [--steps steps.json]
//
// Every flag can also be given as a PMCHECK_* environment variable, like
// PMCHECK_LOG_LEVEL=debug.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cozy/prosemirror-go/internal/config"
	"github.com/cozy/prosemirror-go/internal/logging"
	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger, os.Stdout); err != nil {
		logger.Sugar().Errorw("check failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	log := logger.Sugar()
	model.SetResolveCacheSize(cfg.ResolveCache)

	schema, err := loadSchema(cfg.Schema)
	if err != nil {
		return fmt.Errorf("schema %s: %w", cfg.Schema, err)
	}
	log.Debugw("schema loaded", "nodes", len(schema.Spec.Nodes), "marks", len(schema.Spec.Marks))

	var rawDoc interface{}
	if err := readJSON(cfg.Doc, &rawDoc); err != nil {
		return err
	}
	doc, err := schema.NodeFromJSON(rawDoc)
	if err != nil {
		return fmt.Errorf("document %s: %w", cfg.Doc, err)
	}

	tr := transform.NewTransform(doc).WithLogger(logger)
	if cfg.Steps != "" {
		var rawSteps []interface{}
		if err := readJSON(cfg.Steps, &rawSteps); err != nil {
			return err
		}
		for i, raw := range rawSteps {
			step, err := transform.StepFromJSON(schema, raw)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if err := tr.Step(step); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		log.Infow("steps applied", "count", len(tr.Steps), "size", tr.Doc.Content.Size)
	}

	if err := tr.Doc.Check(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(tr.Doc)
}

func loadSchema(path string) (*model.Schema, error) {
	var spec model.SchemaSpec
	if err := readJSON(path, &spec); err != nil {
		return nil, err
	}
	return model.NewSchema(&spec)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
