package qualitygate

import "fmt"

// GateConfig defines the configuration for quality gates.
type GateConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	ConsistencySeverity string `mapstructure:"consistency_severity" json:"consistency_severity"`

	MinRelationshipRichness float64 `mapstructure:"min_relationship_richness" json:"min_relationship_richness"`
	RelationshipSeverity    string  `mapstructure:"relationship_severity" json:"relationship_severity"`

	MaxInheritanceDepth int    `mapstructure:"max_inheritance_depth" json:"max_inheritance_depth"`
	DepthSeverity       string `mapstructure:"depth_severity" json:"depth_severity"`

	MaxRootRatio float64 `mapstructure:"max_root_ratio" json:"max_root_ratio"`
	RootSeverity string  `mapstructure:"root_severity" json:"root_severity"`

	MinNegotiatedFormats int    `mapstructure:"min_negotiated_formats" json:"min_negotiated_formats"`
	NegotiationSeverity  string `mapstructure:"negotiation_severity" json:"negotiation_severity"`

	MinDomainCoverage float64 `mapstructure:"min_domain_coverage" json:"min_domain_coverage"`
	CoverageSeverity  string  `mapstructure:"coverage_severity" json:"coverage_severity"`
}

// DefaultConfig returns sensible default gate configuration.
func DefaultConfig() *GateConfig {
	return &GateConfig{
		Enabled:                 true,
		ConsistencySeverity:     "critical",
		MinRelationshipRichness: 10,
		RelationshipSeverity:    "required",
		MaxInheritanceDepth:     0, // disabled by default
		DepthSeverity:           "advisory",
		MaxRootRatio:            0.5,
		RootSeverity:            "advisory",
		MinNegotiatedFormats:    1,
		NegotiationSeverity:     "advisory",
		MinDomainCoverage:       0, // disabled by default
		CoverageSeverity:        "advisory",
	}
}

// parseSeverity converts a string to GateSeverity.
func parseSeverity(s string) GateSeverity {
	switch s {
	case "critical":
		return SeverityCritical
	case "required":
		return SeverityRequired
	case "advisory":
		return SeverityAdvisory
	default:
		return SeverityRequired
	}
}

// BuildPipeline constructs a gate pipeline from configuration.
func BuildPipeline(cfg *GateConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := NewPipeline()

	if cfg.ConsistencySeverity != "" {
		p.AddGate(NewConsistencyGate(parseSeverity(cfg.ConsistencySeverity)))
	}

	if cfg.MinRelationshipRichness > 0 {
		p.AddGate(NewRelationshipGate(cfg.MinRelationshipRichness, parseSeverity(cfg.RelationshipSeverity)))
	}

	if cfg.MaxInheritanceDepth > 0 {
		p.AddGate(NewDepthGate(cfg.MaxInheritanceDepth, parseSeverity(cfg.DepthSeverity)))
	}

	if cfg.MaxRootRatio > 0 {
		p.AddGate(NewRootRatioGate(cfg.MaxRootRatio, parseSeverity(cfg.RootSeverity)))
	}

	if cfg.MinNegotiatedFormats > 0 {
		p.AddGate(NewNegotiationGate(cfg.MinNegotiatedFormats, parseSeverity(cfg.NegotiationSeverity)))
	}

	if cfg.MinDomainCoverage > 0 {
		p.AddGate(NewCoverageGate(cfg.MinDomainCoverage, parseSeverity(cfg.CoverageSeverity)))
	}

	return p
}

// FormatReport returns a human-readable quality gate report.
func FormatReport(result *PipelineResult) string {
	var s string
	s += "╔══════════════════════════════════════════╗\n"
	s += "║        Ontology Quality Gates            ║\n"
	s += "╠══════════════════════════════════════════╣\n"

	for _, gr := range result.Gates {
		icon := "✓"
		switch gr.Status {
		case GateFailed:
			icon = "✗"
		case GateSkipped:
			icon = "○"
		case GateWarning:
			icon = "⚠"
		}

		severity := ""
		switch gr.Severity {
		case SeverityCritical:
			severity = "[CRITICAL]"
		case SeverityRequired:
			severity = "[REQUIRED]"
		case SeverityAdvisory:
			severity = "[ADVISORY]"
		}

		s += fmt.Sprintf("║ %s %-14s %-10s %s\n", icon, gr.Name, severity, gr.Message)
		for _, d := range gr.Details {
			s += fmt.Sprintf("║   → %s\n", d)
		}
	}

	s += "╠══════════════════════════════════════════╣\n"
	status := "PASSED"
	if result.Status == GateFailed {
		status = "FAILED"
	}
	s += fmt.Sprintf("║ Result: %s (%s)\n", status, result.Summary)
	s += "╚══════════════════════════════════════════╝\n"

	return s
}
