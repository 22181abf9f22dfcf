package qualitygate

import (
	"strings"
	"testing"
)

func TestConsistencyGate(t *testing.T) {
	tests := []struct {
		name        string
		consistency int
		outcome     string
		wantStatus  GateStatus
		wantMessage string
	}{
		{"consistent", 1, "consistent", GatePassed, "consistent"},
		{"inconsistent", 0, "inconsistent", GateFailed, "inconsistent"},
		{"check failed", 0, "check_failed", GateFailed, "could not be determined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewConsistencyGate(SeverityCritical)
			result, err := gate.Evaluate(&EvalContext{Consistency: tt.consistency, ConsistencyOutcome: tt.outcome})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("got status %v, want %v", result.Status, tt.wantStatus)
			}
			if !strings.Contains(result.Message, tt.wantMessage) {
				t.Errorf("message %q does not contain %q", result.Message, tt.wantMessage)
			}
			if result.Name != "consistency" {
				t.Errorf("got name %q, want %q", result.Name, "consistency")
			}
		})
	}
}

func TestRelationshipGate(t *testing.T) {
	tests := []struct {
		name       string
		min        float64
		richness   float64
		wantStatus GateStatus
	}{
		{"above threshold", 20, 35.5, GatePassed},
		{"at threshold", 20, 20, GatePassed},
		{"below threshold", 20, 12.5, GateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewRelationshipGate(tt.min, SeverityRequired)
			result, err := gate.Evaluate(&EvalContext{RelationshipRichness: tt.richness})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("got status %v, want %v", result.Status, tt.wantStatus)
			}
			if result.Value != tt.richness {
				t.Errorf("got value %v, want %v", result.Value, tt.richness)
			}
			if result.Threshold != tt.min {
				t.Errorf("got threshold %v, want %v", result.Threshold, tt.min)
			}
		})
	}
}

func TestDepthGate(t *testing.T) {
	gate := NewDepthGate(5, SeverityAdvisory)
	for depth, want := range map[int]GateStatus{3: GatePassed, 5: GatePassed, 9: GateFailed} {
		result, _ := gate.Evaluate(&EvalContext{InheritanceDepth: depth})
		if result.Status != want {
			t.Errorf("depth %d: got status %v, want %v", depth, result.Status, want)
		}
	}
}

func TestRootRatioGate(t *testing.T) {
	tests := []struct {
		name       string
		classes    int
		roots      int
		wantStatus GateStatus
	}{
		{"no classes", 0, 0, GateSkipped},
		{"deep hierarchy", 10, 1, GatePassed},
		{"flat ontology", 10, 9, GateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewRootRatioGate(0.5, SeverityAdvisory)
			result, err := gate.Evaluate(&EvalContext{Classes: tt.classes, Roots: tt.roots})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("got status %v, want %v", result.Status, tt.wantStatus)
			}
		})
	}
}

func TestNegotiationGate(t *testing.T) {
	gate := NewNegotiationGate(2, SeverityRequired)

	result, _ := gate.Evaluate(&EvalContext{})
	if result.Status != GateSkipped {
		t.Errorf("without quality data: got status %v, want %v", result.Status, GateSkipped)
	}

	result, _ = gate.Evaluate(&EvalContext{HasQuality: true, NegotiatedFormats: 1})
	if result.Status != GateFailed {
		t.Errorf("one format: got status %v, want %v", result.Status, GateFailed)
	}

	result, _ = gate.Evaluate(&EvalContext{HasQuality: true, NegotiatedFormats: 3})
	if result.Status != GatePassed {
		t.Errorf("three formats: got status %v, want %v", result.Status, GatePassed)
	}
}

func TestCoverageGate(t *testing.T) {
	gate := NewCoverageGate(25, SeverityRequired)

	result, _ := gate.Evaluate(&EvalContext{})
	if result.Status != GateSkipped {
		t.Errorf("no keyword: got status %v, want %v", result.Status, GateSkipped)
	}

	result, _ = gate.Evaluate(&EvalContext{HasLexical: true, DomainCoverage: 40})
	if result.Status != GatePassed {
		t.Errorf("40%%: got status %v, want %v", result.Status, GatePassed)
	}

	result, _ = gate.Evaluate(&EvalContext{HasLexical: true, DomainCoverage: 10})
	if result.Status != GateFailed {
		t.Errorf("10%%: got status %v, want %v", result.Status, GateFailed)
	}
}

func TestPipelineAllPassing(t *testing.T) {
	pipeline := NewPipeline(
		NewConsistencyGate(SeverityCritical),
		NewRelationshipGate(10, SeverityRequired),
		NewRootRatioGate(0.5, SeverityAdvisory),
	)

	result := pipeline.Run(&EvalContext{
		Consistency:          1,
		RelationshipRichness: 40,
		Classes:              10,
		Roots:                2,
	})

	if result.Status != GatePassed {
		t.Errorf("got status %v, want %v", result.Status, GatePassed)
	}
	if result.PassedCount != 3 {
		t.Errorf("got %d passed, want 3", result.PassedCount)
	}
	if !strings.Contains(result.Summary, "3 passed") {
		t.Errorf("summary %q missing pass count", result.Summary)
	}
}

func TestPipelineCriticalGateFailure(t *testing.T) {
	pipeline := NewPipeline(
		NewConsistencyGate(SeverityCritical),
		NewRelationshipGate(10, SeverityRequired),
		NewRootRatioGate(0.5, SeverityAdvisory),
	)

	result := pipeline.Run(&EvalContext{
		Consistency:          0, // fails the critical gate
		ConsistencyOutcome:   "inconsistent",
		RelationshipRichness: 40,
		Classes:              10,
		Roots:                2,
	})

	if result.Status != GateFailed {
		t.Errorf("got status %v, want %v", result.Status, GateFailed)
	}
	if len(result.Gates) != 3 {
		t.Fatalf("got %d gate results, want 3", len(result.Gates))
	}
	if result.Gates[0].Status != GateFailed {
		t.Errorf("first gate status got %v, want %v", result.Gates[0].Status, GateFailed)
	}
	if result.SkippedCount != 2 {
		t.Errorf("got %d skipped, want 2", result.SkippedCount)
	}
}

func TestPipelineRequiredGateFailure(t *testing.T) {
	pipeline := NewPipeline(
		NewRelationshipGate(50, SeverityRequired),
		NewRootRatioGate(0.5, SeverityAdvisory),
	)

	result := pipeline.Run(&EvalContext{RelationshipRichness: 20, Classes: 4, Roots: 1})

	if result.Status != GateFailed {
		t.Errorf("got status %v, want %v", result.Status, GateFailed)
	}
	if len(result.Gates) != 2 {
		t.Errorf("got %d gate results, want 2", len(result.Gates))
	}
	if result.Gates[1].Status != GatePassed {
		t.Errorf("second gate should still run, got %v", result.Gates[1].Status)
	}
}

func TestPipelineAdvisoryWarningOnly(t *testing.T) {
	pipeline := NewPipeline(
		NewConsistencyGate(SeverityCritical),
		NewRootRatioGate(0.5, SeverityAdvisory),
	)

	result := pipeline.Run(&EvalContext{Consistency: 1, Classes: 10, Roots: 10})

	if result.Status != GatePassed {
		t.Errorf("advisory failure should not fail the run, got %v", result.Status)
	}
	if result.WarningCount != 1 {
		t.Errorf("got %d warnings, want 1", result.WarningCount)
	}
	if result.Gates[1].Status != GateWarning {
		t.Errorf("got status %v, want %v", result.Gates[1].Status, GateWarning)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Enabled {
		t.Error("gates should be enabled by default")
	}
	if cfg.ConsistencySeverity != "critical" {
		t.Errorf("got consistency severity %q, want critical", cfg.ConsistencySeverity)
	}
	if cfg.MaxInheritanceDepth != 0 {
		t.Errorf("depth gate should be disabled by default, got %d", cfg.MaxInheritanceDepth)
	}
}

func TestBuildPipeline(t *testing.T) {
	p := BuildPipeline(nil)
	names := make([]string, 0, len(p.gates))
	for _, g := range p.gates {
		names = append(names, g.Name())
	}
	want := []string{"consistency", "relationships", "roots", "negotiation"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("got gates %v, want %v", names, want)
	}

	cfg := DefaultConfig()
	cfg.MaxInheritanceDepth = 8
	cfg.DepthSeverity = "bogus"
	cfg.MinDomainCoverage = 30
	p = BuildPipeline(cfg)
	if len(p.gates) != 6 {
		t.Fatalf("got %d gates, want 6", len(p.gates))
	}
	for _, g := range p.gates {
		if g.Name() == "depth" && g.Severity() != SeverityRequired {
			t.Errorf("unknown severity should default to required, got %v", g.Severity())
		}
	}
}

func TestFormatReport(t *testing.T) {
	pipeline := NewPipeline(
		NewConsistencyGate(SeverityCritical),
		NewNegotiationGate(1, SeverityAdvisory),
	)
	out := FormatReport(pipeline.Run(&EvalContext{Consistency: 0, ConsistencyOutcome: "check_failed"}))

	for _, want := range []string{"Ontology Quality Gates", "[CRITICAL]", "consistency", "FAILED", "○"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPipelineEmptyGates(t *testing.T) {
	result := NewPipeline().Run(&EvalContext{})
	if result.Status != GatePassed {
		t.Errorf("empty pipeline should pass, got %v", result.Status)
	}
	if len(result.Gates) != 0 {
		t.Errorf("got %d gate results, want 0", len(result.Gates))
	}
}

func TestGateInterfaceCompliance(t *testing.T) {
	var _ Gate = (*ConsistencyGate)(nil)
	var _ Gate = (*RelationshipGate)(nil)
	var _ Gate = (*DepthGate)(nil)
	var _ Gate = (*RootRatioGate)(nil)
	var _ Gate = (*NegotiationGate)(nil)
	var _ Gate = (*CoverageGate)(nil)
}
