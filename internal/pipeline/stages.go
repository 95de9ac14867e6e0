package pipeline

import (
	"context"
	"errors"

	"github.com/MeKo-Tech/formscan/internal/enrich"
	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/MeKo-Tech/formscan/internal/structure"
	"github.com/MeKo-Tech/formscan/internal/tokens"
)

// stage is one step of the pipeline. A returned error is recorded and the next stage still
// runs.
type stage interface {
	Name() string
	Process(ctx context.Context, doc *document) error
}

// Stage names used in error messages and metrics.
const (
	StageTokenExtractor   = "TokenExtractor"
	StageLayoutAnalyzer   = "LayoutAnalyzer"
	StageStructureBuilder = "StructureBuilder"
	StageMetadataEnricher = "MetadataEnricher"
)

var errNoImage = errors.New("no image available for recognition")

type tokenExtractor struct {
	rec tokens.Recognizer
}

func (tokenExtractor) Name() string { return StageTokenExtractor }

func (s tokenExtractor) Process(ctx context.Context, doc *document) error {
	doc.tokens = doc.input.Tokens
	if len(doc.tokens) > 0 || s.rec == nil {
		return nil
	}
	if doc.input.Image == nil {
		return errNoImage
	}
	toks, err := s.rec.Recognize(ctx, doc.input.Image)
	if err != nil {
		return err
	}
	doc.tokens = toks
	return nil
}

type layoutAnalyzer struct {
	analyzer *layout.Analyzer
}

func (layoutAnalyzer) Name() string { return StageLayoutAnalyzer }

func (s layoutAnalyzer) Process(_ context.Context, doc *document) error {
	analysis, err := s.analyzer.Analyze(doc.tokens, doc.input.Image)
	if err != nil {
		return err
	}
	doc.analysis = analysis
	return nil
}

type structureBuilder struct {
	builder *structure.Builder
}

func (structureBuilder) Name() string { return StageStructureBuilder }

func (s structureBuilder) Process(_ context.Context, doc *document) error {
	doc.form = s.builder.Build(doc.sections())
	return nil
}

type metadataEnricher struct {
	enricher *enrich.Enricher
}

func (metadataEnricher) Name() string { return StageMetadataEnricher }

func (s metadataEnricher) Process(_ context.Context, doc *document) error {
	doc.metadata = s.enricher.Enrich(doc.tokens, doc.sections())
	doc.metadata.Source = doc.input.Source
	return nil
}
