// Package multicast resolves multicast annotations: it expands every raw
// annotation instance of a module over the declarations it targets,
// propagates instances along inheritance within the module and from
// referenced assemblies, and computes the ordered set of annotations finally
// bound to each declaration.
package multicast

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/annotations"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/hierarchy"
)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSink forwards every diagnostic to sink as it is reported
func WithSink(sink diagnostics.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithRunID sets the identifier recorded on the result
func WithRunID(id uuid.UUID) Option {
	return func(e *Engine) { e.runID = id }
}

// Engine resolves the multicast annotations of one module. All caches are
// owned by the engine; create a new engine for every module and every run.
type Engine struct {
	graph  *codemodel.Graph
	module *codemodel.Module
	logger *zap.Logger
	sink   diagnostics.Sink
	runID  uuid.UUID

	index *hierarchy.Index
	repo  *annotations.Repository
	diags *diagnostics.Collector

	root      *codemodel.Type
	usageType *codemodel.Type

	usages         map[*codemodel.Type]usageResult
	generated      map[codemodel.Declaration]bool
	overrides      map[*codemodel.Method][]*codemodel.Method
	imported       map[int64]*InstanceInfo
	poolTables     map[*codemodel.Assembly]map[int64]*codemodel.Annotation
	hierarchyReady bool

	seed      int64
	idCounter int64

	inherited []func()

	candidates  map[codemodel.Declaration]*targetCandidates
	targetOrder []codemodel.Declaration
	pool        *pool
	result      *Result
}

// New creates an engine resolving module within graph
func New(graph *codemodel.Graph, module *codemodel.Module, opts ...Option) *Engine {
	e := &Engine{
		graph:      graph,
		module:     module,
		logger:     zap.NewNop(),
		index:      hierarchy.NewIndex(),
		usages:     make(map[*codemodel.Type]usageResult),
		generated:  make(map[codemodel.Declaration]bool),
		overrides:  make(map[*codemodel.Method][]*codemodel.Method),
		imported:   make(map[int64]*InstanceInfo),
		poolTables: make(map[*codemodel.Assembly]map[int64]*codemodel.Annotation),
		candidates: make(map[codemodel.Declaration]*targetCandidates),
		seed:       moduleSeed(module),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == uuid.Nil {
		e.runID = uuid.New()
	}
	e.repo = annotations.New(e.index)
	e.diags = diagnostics.NewCollector(e.sink)
	e.root = graph.FindType(RootTypeName)
	e.usageType = graph.FindType(UsageTypeName)
	e.pool = &pool{engine: e, byID: make(map[int64]*codemodel.Annotation)}
	e.result = newResult(e.runID, module)
	return e
}

// Repository returns the annotation repository of the module
func (e *Engine) Repository() *annotations.Repository { return e.repo }

// Execute runs the resolution. Errors reported before expansion abort the
// run; errors reported later are returned together with the bindings that
// could be computed.
func (e *Engine) Execute() (*Result, error) {
	start := time.Now()
	defer func() {
		resolutionDuration.Observe(time.Since(start).Seconds())
	}()

	log := e.logger.With(
		zap.String("module", e.module.Name()),
		zap.String("run_id", e.runID.String()),
	)
	log.Info("resolving multicast annotations")

	if e.root == nil {
		log.Debug("no multicast root type in the graph")
		return e.result, nil
	}

	raws := e.discover()
	log.Debug("discovered raw instances", zap.Int("count", len(raws)))

	infos := e.buildInfos(raws)
	if err := e.diags.Checkpoint("usage resolution"); err != nil {
		e.result.Diagnostics = e.diags.Diagnostics()
		log.Warn("resolution aborted", zap.Error(err))
		return e.result, err
	}

	for _, info := range infos {
		e.applyDeclared(info)
	}
	e.drainInherited()
	log.Debug("expanded instances", zap.Int("targets", len(e.targetOrder)))

	e.propagateAcrossAssemblies()
	e.drainInherited()

	e.mergeAndBind()
	e.result.pool = e.pool.typ
	e.result.Diagnostics = e.diags.Diagnostics()

	log.Info("resolved multicast annotations",
		zap.Int("bindings", e.result.Len()),
		zap.Int("diagnostics", len(e.result.Diagnostics)),
		zap.Duration("elapsed", time.Since(start)))

	if err := e.diags.Checkpoint("binding"); err != nil {
		return e.result, err
	}
	return e.result, nil
}

// discover returns the raw instances of every concrete multicast annotation
// type declared in the module, skipping compiler-generated declarations
func (e *Engine) discover() []*codemodel.Annotation {
	e.repo.ScanModule(e.module)

	types := e.index.DerivedTypes(e.root, true, nil)
	sort.SliceStable(types, func(i, j int) bool { return types[i].Name() < types[j].Name() })

	var raws []*codemodel.Annotation
	for _, t := range types {
		if t.Abstract {
			continue
		}
		for _, a := range e.repo.Query(t, false) {
			target := a.Target()
			if target == nil || !e.isLocal(target) || e.isGenerated(target) {
				continue
			}
			raws = append(raws, a)
		}
	}
	return raws
}

// buildInfos resolves usages and validates instances. Every raw instance is
// consumed, valid or not.
func (e *Engine) buildInfos(raws []*codemodel.Annotation) []*InstanceInfo {
	var infos []*InstanceInfo
	for _, a := range raws {
		e.repo.Remove(a)
		a.Target().RemoveCustomAttribute(a)

		usage, ok := e.resolveUsage(a.Type)
		if !ok {
			continue
		}
		info, ok := e.buildInstanceInfo(a, usage, a.Target(), false)
		if !ok {
			continue
		}
		instancesDiscovered.Inc()
		infos = append(infos, info)
	}
	return infos
}

func (e *Engine) report(d *diagnostics.Diagnostic) {
	diagnosticsReported.WithLabelValues(string(d.Code)).Inc()
	e.logger.Debug("diagnostic",
		zap.String("code", string(d.Code)),
		zap.String("declaration", d.Declaration),
		zap.String("message", d.Message))
	e.diags.Report(d)
}

func (e *Engine) isLocal(d codemodel.Declaration) bool {
	return d.Module() == e.module
}

func (e *Engine) isGenerated(d codemodel.Declaration) bool {
	if v, ok := e.generated[d]; ok {
		return v
	}
	v := codemodel.IsCompilerGenerated(d)
	e.generated[d] = v
	return v
}

// ensureHierarchy indexes every type of the module the first time
// inheritance needs the index
func (e *Engine) ensureHierarchy() {
	if e.hierarchyReady {
		return
	}
	e.hierarchyReady = true
	e.index.IndexModule(e.module)
}

// findOverrides returns the methods of the module overriding or implementing m
func (e *Engine) findOverrides(m *codemodel.Method) []*codemodel.Method {
	if cached, ok := e.overrides[m]; ok {
		return cached
	}
	e.ensureHierarchy()

	var out []*codemodel.Method
	for _, d := range e.index.DerivedTypeInfos(m.DeclaringType()) {
		if !e.isLocal(d.Type) {
			continue
		}
		if ov := hierarchy.FindOverride(m, d.Type, d.Map); ov != nil {
			out = append(out, ov)
		}
	}
	e.overrides[m] = out
	return out
}
