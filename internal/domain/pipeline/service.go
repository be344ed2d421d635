package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/canonical"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/extraction"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/gate"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/layout"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/metrics"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/numeric"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/profile"
	"github.com/FACorreiaa/ecdf-canonical/pkg/config"
)

// Service runs the canonicalization pipeline: one document in, one canonical
// model out. Stages run strictly sequentially; the service holds only
// read-only state and supports one instance per concurrent document.
type Service struct {
	cfg        config.PipelineConfig
	dict       *dictionary.Dictionary
	detector   *numeric.Detector
	extractor  *extraction.Extractor
	classifier *profile.Classifier
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewService wires the pipeline stages against the shared dictionary.
func NewService(cfg *config.Config, dict *dictionary.Dictionary, logger *slog.Logger) *Service {
	thresholds := profile.Thresholds{
		Small: profile.SizeTier{
			BalanceSheetTotal: decimal.NewFromFloat(cfg.Thresholds.SmallBalanceSheet),
			NetTurnover:       decimal.NewFromFloat(cfg.Thresholds.SmallTurnover),
			Headcount:         decimal.NewFromInt(int64(cfg.Thresholds.SmallHeadcount)),
		},
		Medium: profile.SizeTier{
			BalanceSheetTotal: decimal.NewFromFloat(cfg.Thresholds.MediumBalanceSheet),
			NetTurnover:       decimal.NewFromFloat(cfg.Thresholds.MediumTurnover),
			Headcount:         decimal.NewFromInt(int64(cfg.Thresholds.MediumHeadcount)),
		},
	}

	return &Service{
		cfg:        cfg.Pipeline,
		dict:       dict,
		detector:   numeric.NewDetector(cfg.Pipeline.ScaleUncertainBelow),
		extractor:  extraction.NewExtractor(dict, logger),
		classifier: profile.NewClassifier(thresholds),
		logger:     logger,
		tracer:     otel.Tracer("ecdf-canonical/pipeline"),
	}
}

// Run executes stages 1-6. The only fatal case is unreadable input; every
// other problem degrades confidence and surfaces through the gate object.
func (s *Service) Run(ctx context.Context, doc *layout.Document, overrides profile.Overrides) (*canonical.Model, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	if err := doc.Validate(); err != nil {
		documentsTotal.WithLabelValues("aborted").Inc()
		return nil, err
	}

	extracted := s.extractCodes(ctx, doc)
	detection := s.detectScale(ctx, doc, extracted)
	model := s.buildModel(ctx, doc, extracted, detection, overrides)

	documentsTotal.WithLabelValues(string(model.Gates.Readiness)).Inc()
	s.logger.Info("pipeline complete",
		slog.String("readiness", string(model.Gates.Readiness)),
		slog.Int("codes", len(extracted.Codes)),
		slog.String("scale", string(detection.Scale)),
		slog.Float64("overall_confidence", model.Metadata.OverallConfidence),
		slog.Duration("elapsed", time.Since(started)),
	)
	return model, nil
}

// FilterFindings applies the opportunity gate (stage 7) to candidate
// findings produced by the downstream analyzer.
func (s *Service) FilterFindings(m *canonical.Model, findings []gate.Finding) []gate.Finding {
	accepted := gate.Filter(m.Gates, m.Metrics, findings)
	findingsTotal.WithLabelValues("candidate").Add(float64(len(findings)))
	findingsTotal.WithLabelValues("accepted").Add(float64(len(accepted)))
	return accepted
}

func (s *Service) extractCodes(ctx context.Context, doc *layout.Document) extraction.Result {
	_, span := s.tracer.Start(ctx, "pipeline.extract_codes")
	defer span.End()
	defer observeStage("extract_codes", time.Now())

	return s.extractor.Extract(doc)
}

func (s *Service) detectScale(ctx context.Context, doc *layout.Document, extracted extraction.Result) numeric.Detection {
	_, span := s.tracer.Start(ctx, "pipeline.detect_scale")
	defer span.End()
	defer observeStage("detect_scale", time.Now())

	var values []decimal.Decimal
	for _, rec := range extracted.Codes {
		if rec.CurrentValue != nil {
			values = append(values, *rec.CurrentValue)
		}
	}
	return s.detector.Detect(doc.Text, values)
}

func (s *Service) buildModel(ctx context.Context, doc *layout.Document, extracted extraction.Result, detection numeric.Detection, overrides profile.Overrides) *canonical.Model {
	_, span := s.tracer.Start(ctx, "pipeline.build_model")
	defer span.End()
	defer observeStage("build_model", time.Now())

	items := s.lineItems(extracted, detection)
	current, prior := valueMaps(items)

	classified := s.classifier.Classify(profile.Inputs{
		Text:              doc.Text,
		BalanceSheetTotal: mapValue(current, "109"),
		NetTurnover:       mapValue(current, "7010"),
		AverageEmployees:  mapValue(current, "9010"),
	}, overrides)

	set := metrics.Compute(metrics.Inputs{Current: current, Prior: prior})

	scaleValidated := !detection.Uncertain
	gates := gate.Evaluate(gate.Inputs{
		ScaleValidated:      scaleValidated,
		ScaleUncertain:      detection.Uncertain,
		BalanceDelta:        balanceDelta(current),
		BalanceTolerance:    decimal.NewFromFloat(s.cfg.BalanceTolerance),
		Consolidation:       consolidationStatus(classified.Consolidation.Value),
		Mapping:             s.mappingBands(extracted),
		Sections:            s.sections(doc, items),
		AccountAbridged:     classified.AccountType.Value == string(profile.AccountAbridged),
		AnchorConfidence:    meanConfidence(items.balanceSheet, items.profitLoss),
		ContextConfidence:   meanConfidence(items.notes),
		NarrativeConfidence: narrativeConfidence(doc.Text),
	})

	warnings := append([]string{}, extracted.Warnings...)
	if detection.Uncertain {
		warnings = append(warnings, "unit scale uncertain: "+strings.Join(detection.Evidence, "; "))
	}
	warnings = append(warnings, s.reconcileSummaries(doc, extracted)...)

	return &canonical.Model{
		Metadata: canonical.Metadata{
			SchemaVersion:     canonical.SchemaVersion,
			DictionaryVersion: extracted.DictionaryVersion,
			Language:          detectLanguage(doc.Text),
			Scale:             detection.Scale,
			ScaleValidated:    scaleValidated,
			ScaleConfidence:   detection.Confidence,
			AccountType:       classified.AccountType.Value,
			CompanySize:       classified.Size,
			OverallConfidence: extracted.OverallConfidence,
			Warnings:          warnings,
			GeneratedAt:       time.Now().UTC(),
		},
		Profile:      classified,
		BalanceSheet: items.balanceSheet,
		ProfitLoss:   items.profitLoss,
		Notes:        items.notes,
		Metrics:      set,
		Gates:        gates,
	}
}

// reconcileSummaries cross-checks figures mentioned in narrative text
// against the table-extracted value for the same code. A consistent
// power-of-thousand ratio means a summary section states a different scale;
// it is reported as a discrepancy, never corrected.
func (s *Service) reconcileSummaries(doc *layout.Document, extracted extraction.Result) []string {
	if extracted.UsedTextFallback {
		return nil
	}
	tableValues := map[string]decimal.Decimal{}
	for _, rec := range extracted.Codes {
		if rec.CurrentValue != nil {
			tableValues[rec.Code] = *rec.CurrentValue
		}
	}
	if len(tableValues) == 0 {
		return nil
	}

	var warnings []string
	for _, rec := range s.extractor.ScanText(doc.Text) {
		statement, ok := tableValues[rec.Code]
		if !ok || rec.CurrentValue == nil {
			continue
		}
		if disc := numeric.CrossValidate(*rec.CurrentValue, statement); disc != nil {
			warnings = append(warnings, "scale discrepancy for code "+rec.Code+": "+disc.Evidence)
		}
	}
	return warnings
}

// sectionedItems groups canonical line items per statement section.
type sectionedItems struct {
	balanceSheet []canonical.LineItem
	profitLoss   []canonical.LineItem
	notes        []canonical.LineItem
}

// lineItems applies the unit scale exactly once and routes records into
// statement sections by dictionary category. Monetary sections are scaled;
// note codes (headcounts and similar counts) never are.
func (s *Service) lineItems(extracted extraction.Result, detection numeric.Detection) sectionedItems {
	multiplier := detection.Scale.Multiplier()
	var out sectionedItems

	for _, rec := range extracted.Codes {
		item := canonical.LineItem{
			Code:       rec.Code,
			Caption:    rec.Caption,
			Confidence: rec.Confidence,
			Page:       rec.Page,
			Source:     rec.Source,
		}

		category := dictionary.CategoryOther
		if def, ok := s.dict.Lookup(rec.Code); ok {
			category = def.Category
			if item.Caption == "" {
				item.Caption = def.CaptionEN
			}
		}
		monetary := category == dictionary.CategoryBalanceSheet || category == dictionary.CategoryProfitLoss

		item.CurrentValue = scaled(rec.CurrentValue, multiplier, monetary)
		item.PriorValue = scaled(rec.PriorValue, multiplier, monetary)

		switch category {
		case dictionary.CategoryBalanceSheet:
			out.balanceSheet = append(out.balanceSheet, item)
		case dictionary.CategoryProfitLoss:
			out.profitLoss = append(out.profitLoss, item)
		default:
			out.notes = append(out.notes, item)
		}
	}

	for _, section := range [][]canonical.LineItem{out.balanceSheet, out.profitLoss, out.notes} {
		sort.Slice(section, func(i, j int) bool { return section[i].Code < section[j].Code })
	}
	return out
}

func scaled(v *decimal.Decimal, multiplier decimal.Decimal, monetary bool) *decimal.Decimal {
	if v == nil {
		return nil
	}
	if !monetary {
		c := *v
		return &c
	}
	c := v.Mul(multiplier)
	return &c
}

func valueMaps(items sectionedItems) (current, prior map[string]decimal.Decimal) {
	current = map[string]decimal.Decimal{}
	prior = map[string]decimal.Decimal{}
	for _, section := range [][]canonical.LineItem{items.balanceSheet, items.profitLoss, items.notes} {
		for _, item := range section {
			if item.CurrentValue != nil {
				current[item.Code] = *item.CurrentValue
			}
			if item.PriorValue != nil {
				prior[item.Code] = *item.PriorValue
			}
		}
	}
	return current, prior
}

func mapValue(values map[string]decimal.Decimal, code string) *decimal.Decimal {
	if v, ok := values[code]; ok {
		return &v
	}
	return nil
}

func balanceDelta(current map[string]decimal.Decimal) *decimal.Decimal {
	assets, okA := current["109"]
	liabilities, okL := current["405"]
	if !okA || !okL {
		return nil
	}
	d := assets.Sub(liabilities)
	return &d
}

func (s *Service) mappingBands(extracted extraction.Result) gate.Mapping {
	m := gate.Mapping{Total: len(extracted.Codes)}
	for _, rec := range extracted.Codes {
		switch {
		case rec.Confidence >= s.cfg.MappingHighFloor:
			m.High++
		case rec.Confidence >= s.cfg.MappingMediumFloor:
			m.Medium++
		default:
			m.Low++
		}
		if def, ok := s.dict.Lookup(rec.Code); ok &&
			def.Priority == dictionary.PriorityHigh && rec.Confidence < s.cfg.CriticalConfidenceFloor {
			m.CriticalBelowFloor = append(m.CriticalBelowFloor, rec.Code)
		}
	}
	return m
}

var managementReportMarkers = []string{
	"management report", "rapport de gestion", "lagebericht",
}

func (s *Service) sections(doc *layout.Document, items sectionedItems) gate.Sections {
	lower := strings.ToLower(doc.Text)
	sec := gate.Sections{
		BalanceSheet: len(items.balanceSheet) > 0,
		ProfitLoss:   len(items.profitLoss) > 0,
		Notes:        len(items.notes) > 0 || strings.Contains(lower, "notes to the") || strings.Contains(lower, "annexe"),
	}
	for _, marker := range managementReportMarkers {
		if strings.Contains(lower, marker) {
			sec.ManagementReport = true
			break
		}
	}
	return sec
}

func meanConfidence(sections ...[]canonical.LineItem) float64 {
	sum, n := 0.0, 0
	for _, section := range sections {
		for _, item := range section {
			sum += item.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// narrativeConfidence is a coarse score for the management report slice:
// present or not, there is no per-line confidence to aggregate.
func narrativeConfidence(text string) float64 {
	lower := strings.ToLower(text)
	for _, marker := range managementReportMarkers {
		if strings.Contains(lower, marker) {
			return 0.6
		}
	}
	return 0
}

func consolidationStatus(value string) gate.ConsolidationStatus {
	switch value {
	case string(profile.ConsolidationStandalone):
		return gate.ConsolidationStandalone
	case string(profile.ConsolidationConsolidated):
		return gate.ConsolidationConsolidated
	default:
		return gate.ConsolidationPending
	}
}

// detectLanguage is a coarse stopword vote across the three filing
// languages; it feeds metadata only and never gates anything.
func detectLanguage(text string) string {
	lower := " " + strings.ToLower(text) + " "
	votes := map[string]int{}
	stopwords := map[string][]string{
		"en": {" the ", " and ", " for ", " year "},
		"fr": {" le ", " la ", " les ", " des ", " exercice "},
		"de": {" der ", " die ", " das ", " und ", " geschäftsjahr "},
	}
	for lang, words := range stopwords {
		for _, w := range words {
			votes[lang] += strings.Count(lower, w)
		}
	}
	best, bestVotes := "", 0
	for _, lang := range []string{"en", "fr", "de"} {
		if votes[lang] > bestVotes {
			best, bestVotes = lang, votes[lang]
		}
	}
	return best
}
