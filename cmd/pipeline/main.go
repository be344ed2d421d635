// Command pipeline canonicalizes one OCR layout document into the canonical
// financial model: scale-normalized values, statutory code mapping, company
// profile, deterministic metrics and the pre-analysis gate object.
//
// Usage:
//
//	pipeline run -input layout.json [-out model.json] [-xlsx model.xlsx] [-save -document-id id]
//	pipeline lookup <caption>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/canonical"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/layout"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/profile"
	"github.com/FACorreiaa/ecdf-canonical/pkg/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(os.Args[2:], logger)
	case "lookup":
		err = lookupCommand(os.Args[2:], logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  pipeline run -input layout.json [-out model.json] [-xlsx model.xlsx] [-save -document-id id]")
	fmt.Fprintln(os.Stderr, "  pipeline lookup <caption>")
}

func runCommand(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	input := fs.String("input", "", "path to the OCR layout JSON (required)")
	out := fs.String("out", "", "write the canonical model JSON here (default stdout)")
	xlsx := fs.String("xlsx", "", "also export the model as an XLSX workbook")
	save := fs.Bool("save", false, "persist the extraction to the database")
	documentID := fs.String("document-id", "", "document identifier for persistence")
	legalName := fs.String("legal-name", "", "override the extracted legal name")
	rcs := fs.String("rcs", "", "override the extracted RCS number")
	yearEnd := fs.String("year-end", "", "override the financial year end (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("run: -input is required")
	}
	if *save && *documentID == "" {
		return fmt.Errorf("run: -save requires -document-id")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	deps, err := InitDependencies(cfg, logger, *save)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	doc, err := readDocument(*input)
	if err != nil {
		return err
	}

	ctx := context.Background()
	model, err := deps.Pipeline.Run(ctx, doc, profile.Overrides{
		LegalName: *legalName,
		RCSNumber: *rcs,
		YearEnd:   *yearEnd,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if err := writeModel(model, *out); err != nil {
		return err
	}
	if *xlsx != "" {
		if err := writeWorkbook(model, *xlsx); err != nil {
			return err
		}
		logger.Info("workbook written", slog.String("path", *xlsx))
	}
	if *save {
		if err := deps.ExtractionRepo.Save(ctx, *documentID, model); err != nil {
			return fmt.Errorf("persist extraction: %w", err)
		}
		logger.Info("extraction persisted",
			slog.String("document_id", *documentID),
			slog.String("extraction_id", model.Gates.ID.String()),
		)
	}
	return nil
}

func lookupCommand(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	limit := fs.Int("limit", 5, "maximum number of matches to print")
	if err := fs.Parse(args); err != nil {
		return err
	}
	caption := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if caption == "" {
		return fmt.Errorf("lookup: a caption argument is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	deps, err := InitDependencies(cfg, logger, false)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	matches := deps.CaptionMatcher.MatchAll(caption, *limit)
	for _, m := range matches {
		def, _ := deps.Dictionary.Lookup(m.Code)
		fmt.Printf("%-6s %-32s %.2f  (%s: %s)\n", m.Code, def.CaptionEN, m.Confidence, m.Language, m.Caption)
	}

	// The full-text index widens recall for captions the deterministic
	// matcher cannot place at all.
	if len(matches) == 0 {
		index, err := dictionary.NewCaptionIndex(deps.Dictionary)
		if err != nil {
			return fmt.Errorf("build caption index: %w", err)
		}
		defer index.Close()

		hits, err := index.Search(caption, *limit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			logger.Info("no matches", slog.String("caption", caption))
			return nil
		}
		for _, h := range hits {
			def, _ := deps.Dictionary.Lookup(h.Code)
			fmt.Printf("%-6s %-32s %.2f  (index)\n", h.Code, def.CaptionEN, h.Score)
		}
	}
	return nil
}

func readDocument(path string) (*layout.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout file: %w", err)
	}
	var doc layout.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse layout file: %w", err)
	}
	return &doc, nil
}

func writeModel(m *canonical.Model, path string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal canonical model: %w", err)
	}
	if path == "" {
		_, err = os.Stdout.Write(append(raw, '\n'))
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}
	return nil
}

func writeWorkbook(m *canonical.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook file: %w", err)
	}
	defer f.Close()
	if err := canonical.ExportXLSX(m, f); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	return nil
}
