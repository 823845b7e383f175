package overlay

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/diagnostics"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/macro"
	"github.com/orizon-lang/declview/internal/position"
)

// DefaultConcurrency bounds the number of files PreprocessAll works on at
// once.
const DefaultConcurrency = 4

// Extension runs after the macro pass of every file.
type Extension interface {
	Name() string
	Process(ctx context.Context, f *decl.File) error
}

// Suggester is the part of a macro registry used to report annotations
// that look like macros but name none. *macro.Engine implements it.
type Suggester interface {
	Resolve(a *decl.Annotation) (string, bool)
	Namespaces() []string
	Suggest(name string, threshold float64) []string
}

// Result describes the macro pass over one file.
type Result struct {
	Path string
	// Expanded lists the declarations that gained a hidden element.
	Expanded []decl.TypeParameterListOwner
	Failed   int
	Unknown  int
}

// Preprocessor expands the macro-annotated declarations of files and
// reports problems as diagnostics instead of stopping.
type Preprocessor struct {
	expander    decl.MacroExpander
	suggester   Suggester
	tools       decl.MetaTools
	reporter    *diagnostics.Reporter
	extensions  []Extension
	logger      *slog.Logger
	threshold   float64
	concurrency int
}

type Option func(*Preprocessor)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Preprocessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTools sets the tools attached to declarations that have none.
func WithTools(t decl.MetaTools) Option {
	return func(p *Preprocessor) { p.tools = t }
}

func WithReporter(r *diagnostics.Reporter) Option {
	return func(p *Preprocessor) { p.reporter = r }
}

func WithExtension(ext Extension) Option {
	return func(p *Preprocessor) { p.extensions = append(p.extensions, ext) }
}

// WithSuggestThreshold sets the similarity a macro name needs to be
// offered for an unknown one.
func WithSuggestThreshold(threshold float64) Option {
	return func(p *Preprocessor) { p.threshold = threshold }
}

func WithConcurrency(n int) Option {
	return func(p *Preprocessor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewPreprocessor creates a preprocessor expanding with x. When x also
// implements Suggester, unknown macros are reported.
func NewPreprocessor(x decl.MacroExpander, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		expander:    x,
		tools:       NewTools(),
		reporter:    diagnostics.NewReporter(),
		logger:      slog.Default(),
		threshold:   macro.DefaultSuggestThreshold,
		concurrency: DefaultConcurrency,
	}
	if s, ok := x.(Suggester); ok {
		p.suggester = s
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Preprocessor) Reporter() *diagnostics.Reporter { return p.reporter }

// PreprocessFile initializes the hidden element of every macro-annotated
// declaration of f, class members included.
func (p *Preprocessor) PreprocessFile(ctx context.Context, f *decl.File) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.reporter.AddSource(f.Path(), f.Text())
	if f.MetaTools() == nil {
		f.SetMetaTools(p.tools)
	}

	res := &Result{Path: f.Path()}
	for _, o := range decl.CollectOwners(f, false) {
		if o.MetaTools() == nil {
			o.SetMetaTools(p.tools)
		}
		res.Unknown += p.reportUnknown(o)

		ann := firstMacro(o, p.expander)
		if ann == nil {
			continue
		}
		if err := o.InitializeHiddenElement(p.expander); err != nil {
			res.Failed++
			if errors.HasCode(err, errors.CodeConversionFailed) || errors.HasCode(err, errors.CodeUnsupportedShape) {
				p.reporter.ConversionFailed(o.Name(), p.span(o), err)
			} else {
				p.reporter.MacroExpansionFailed(o.Name(), ann.QualifiedName(), p.span(o), err)
			}
			p.logger.Debug("expansion failed", "path", f.Path(), "declaration", o.Name(), "error", err)
			continue
		}
		if o.HasHiddenElementInitialized() {
			res.Expanded = append(res.Expanded, o)
			p.logger.Debug("expanded declaration", "path", f.Path(), "declaration", o.Name(), "macro", ann.QualifiedName())
		}
	}

	for _, ext := range p.extensions {
		if err := ext.Process(ctx, f); err != nil {
			return res, fmt.Errorf("preprocessor extension %s: %w", ext.Name(), err)
		}
	}
	return res, nil
}

// PreprocessAll runs PreprocessFile over files, each file in one
// goroutine. Results are in the order of files.
func (p *Preprocessor) PreprocessAll(ctx context.Context, files []*decl.File) ([]*Result, error) {
	results := make([]*Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range files {
		g.Go(func() error {
			res, err := p.PreprocessFile(ctx, f)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// reportUnknown reports the annotations of o that name a macro namespace
// but no registered macro.
func (p *Preprocessor) reportUnknown(o decl.TypeParameterListOwner) int {
	if p.suggester == nil {
		return 0
	}
	namespaces := p.suggester.Namespaces()
	n := 0
	for _, a := range o.Annotations() {
		if p.expander.IsMacroAnnotation(a) {
			continue
		}
		name, ok := p.suggester.Resolve(a)
		if !ok {
			continue
		}
		i := strings.LastIndexByte(name, '.')
		if i <= 0 || !slices.Contains(namespaces, name[:i]) {
			continue
		}
		n++
		p.reporter.UnknownMacro(name, p.span(a), p.suggester.Suggest(name, p.threshold))
	}
	return n
}

func firstMacro(o decl.TypeParameterListOwner, x decl.MacroExpander) *decl.Annotation {
	if x == nil {
		return nil
	}
	for _, a := range o.Annotations() {
		if x.IsMacroAnnotation(a) {
			return a
		}
	}
	return nil
}

func (p *Preprocessor) span(e decl.Element) position.Span {
	src := SourceElement(e)
	n := src.Node()
	return p.reporter.Span(src.File().Path(), n.TextOffset(), n.EndOffset())
}

