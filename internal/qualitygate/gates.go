package qualitygate

import "fmt"

// ConsistencyGate requires the reasoner to have reported a consistent
// ontology.
type ConsistencyGate struct {
	severity GateSeverity
}

func NewConsistencyGate(severity GateSeverity) *ConsistencyGate {
	return &ConsistencyGate{severity: severity}
}

func (g *ConsistencyGate) Name() string           { return "consistency" }
func (g *ConsistencyGate) Severity() GateSeverity { return g.severity }
func (g *ConsistencyGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Value:     float64(ctx.Consistency),
		Threshold: 1,
	}
	if ctx.Consistency == 1 {
		r.Status = GatePassed
		r.Message = "Ontology is consistent"
		return r, nil
	}
	r.Status = GateFailed
	switch ctx.ConsistencyOutcome {
	case "check_failed":
		r.Message = "Consistency could not be determined"
	default:
		r.Message = "Ontology is inconsistent"
	}
	return r, nil
}

// RelationshipGate checks relationship richness against a minimum percent.
type RelationshipGate struct {
	MinRichness float64
	severity    GateSeverity
}

func NewRelationshipGate(minRichness float64, severity GateSeverity) *RelationshipGate {
	return &RelationshipGate{MinRichness: minRichness, severity: severity}
}

func (g *RelationshipGate) Name() string           { return "relationships" }
func (g *RelationshipGate) Severity() GateSeverity { return g.severity }
func (g *RelationshipGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Value:     ctx.RelationshipRichness,
		Threshold: g.MinRichness,
	}
	if ctx.RelationshipRichness >= g.MinRichness {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Relationship richness %.2f%% meets threshold %.2f%%", ctx.RelationshipRichness, g.MinRichness)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Relationship richness %.2f%% below threshold %.2f%%", ctx.RelationshipRichness, g.MinRichness)
	}
	return r, nil
}

// DepthGate caps the inheritance depth.
type DepthGate struct {
	MaxDepth int
	severity GateSeverity
}

func NewDepthGate(maxDepth int, severity GateSeverity) *DepthGate {
	return &DepthGate{MaxDepth: maxDepth, severity: severity}
}

func (g *DepthGate) Name() string           { return "depth" }
func (g *DepthGate) Severity() GateSeverity { return g.severity }
func (g *DepthGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Value:     float64(ctx.InheritanceDepth),
		Threshold: float64(g.MaxDepth),
	}
	if ctx.InheritanceDepth <= g.MaxDepth {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Inheritance depth %d within limit %d", ctx.InheritanceDepth, g.MaxDepth)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Inheritance depth %d exceeds limit %d", ctx.InheritanceDepth, g.MaxDepth)
	}
	return r, nil
}

// RootRatioGate flags flat ontologies where most classes have no parent.
type RootRatioGate struct {
	MaxRatio float64
	severity GateSeverity
}

func NewRootRatioGate(maxRatio float64, severity GateSeverity) *RootRatioGate {
	return &RootRatioGate{MaxRatio: maxRatio, severity: severity}
}

func (g *RootRatioGate) Name() string           { return "roots" }
func (g *RootRatioGate) Severity() GateSeverity { return g.severity }
func (g *RootRatioGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Threshold: g.MaxRatio,
	}

	if ctx.Classes == 0 {
		r.Status = GateSkipped
		r.Message = "No classes to evaluate"
		return r, nil
	}

	ratio := float64(ctx.Roots) / float64(ctx.Classes)
	r.Value = ratio
	if ratio <= g.MaxRatio {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Root ratio %.2f within limit %.2f (%d/%d)", ratio, g.MaxRatio, ctx.Roots, ctx.Classes)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Root ratio %.2f exceeds limit %.2f (%d/%d)", ratio, g.MaxRatio, ctx.Roots, ctx.Classes)
	}
	return r, nil
}

// NegotiationGate requires a minimum number of published serializations.
type NegotiationGate struct {
	MinFormats int
	severity   GateSeverity
}

func NewNegotiationGate(minFormats int, severity GateSeverity) *NegotiationGate {
	return &NegotiationGate{MinFormats: minFormats, severity: severity}
}

func (g *NegotiationGate) Name() string           { return "negotiation" }
func (g *NegotiationGate) Severity() GateSeverity { return g.severity }
func (g *NegotiationGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Threshold: float64(g.MinFormats),
	}

	if !ctx.HasQuality {
		r.Status = GateSkipped
		r.Message = "Quality assessment not run"
		return r, nil
	}

	r.Value = float64(ctx.NegotiatedFormats)
	if ctx.NegotiatedFormats >= g.MinFormats {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("%d serializations published (minimum %d)", ctx.NegotiatedFormats, g.MinFormats)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Only %d serializations published (minimum %d)", ctx.NegotiatedFormats, g.MinFormats)
	}
	return r, nil
}

// CoverageGate checks lexical domain coverage against a minimum percent.
type CoverageGate struct {
	MinCoverage float64
	severity    GateSeverity
}

func NewCoverageGate(minCoverage float64, severity GateSeverity) *CoverageGate {
	return &CoverageGate{MinCoverage: minCoverage, severity: severity}
}

func (g *CoverageGate) Name() string           { return "coverage" }
func (g *CoverageGate) Severity() GateSeverity { return g.severity }
func (g *CoverageGate) Evaluate(ctx *EvalContext) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Threshold: g.MinCoverage,
	}

	if !ctx.HasLexical {
		r.Status = GateSkipped
		r.Message = "No keyword given"
		return r, nil
	}

	r.Value = ctx.DomainCoverage
	if ctx.DomainCoverage >= g.MinCoverage {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Domain coverage %.1f%% meets threshold %.1f%%", ctx.DomainCoverage, g.MinCoverage)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Domain coverage %.1f%% below threshold %.1f%%", ctx.DomainCoverage, g.MinCoverage)
	}
	return r, nil
}
