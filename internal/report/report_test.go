package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pascan/pascan/internal/model"
)

func fixtureModel() *model.ProjectModel {
	return &model.ProjectModel{
		Meta: model.Meta{RunID: "run-1", GeneratedAt: "2026-01-01T00:00:00Z", Duration: "10ms", FileCount: 2},
		Units: []model.SourceUnit{
			{
				Name:      "Unit4",
				FilePath:  "Unit4.pas",
				LineCount: 40,
				Types: []model.TypeDeclaration{
					{
						Name:      "TForm4",
						Category:  model.CategoryForm,
						Ancestors: []string{"TForm"},
						Methods: []model.MethodDeclaration{
							{
								Name:       "Button1Click",
								Kind:       model.KindProcedure,
								Purpose:    model.PurposeEventHandler,
								Complexity: model.ComplexityMetric{Cyclomatic: 3, MaxNestingDepth: 2},
							},
						},
					},
				},
				Truncated: true,
			},
		},
		Edges:                []model.DependencyEdge{{From: "Unit4", To: "Calc"}},
		ExternalDependencies: []model.ExternalDependency{{From: "Unit4", To: "Forms"}},
		Cycles:               []model.Cycle{{Units: []string{"A", "B"}}},
		Skipped:              []model.SkippedFile{{FilePath: "junk.pas", Reason: "no unit, interface or implementation boundary found"}},
		Totals:               model.Totals{Units: 1, Forms: 1, Methods: 1, TotalComplexity: 3},
	}
}

func TestCanonicalJSON_IgnoresMeta(t *testing.T) {
	pm1 := fixtureModel()
	pm2 := fixtureModel()
	pm2.Meta = model.Meta{RunID: "other", GeneratedAt: "2026-02-02T00:00:00Z", Duration: "99s", FileCount: 2}

	j1, err := CanonicalJSON(pm1)
	if err != nil {
		t.Fatal(err)
	}
	j2, err := CanonicalJSON(pm2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(j1, j2) {
		t.Error("canonical JSON differs when only run metadata differs")
	}
	if strings.Contains(string(j1), "run-1") {
		t.Error("canonical JSON leaked the run ID")
	}
}

func TestCanonicalJSON_DoesNotMutateInput(t *testing.T) {
	pm := fixtureModel()
	if _, err := CanonicalJSON(pm); err != nil {
		t.Fatal(err)
	}
	if pm.Meta.RunID != "run-1" {
		t.Error("CanonicalJSON mutated the input model's metadata")
	}
}

func TestMetaJSON(t *testing.T) {
	data, err := MetaJSON(fixtureModel())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "run-1") {
		t.Errorf("MetaJSON missing run ID: %s", data)
	}
}

func TestMarkdown_Sections(t *testing.T) {
	md := NewRenderer(0).Markdown(fixtureModel())

	for _, want := range []string{
		"# Project Structure",
		"## Overview",
		"## Units",
		"**Unit4**",
		"## Dependency Cycles",
		"A -> B -> A",
		"## Complexity Hotspots",
		"TForm4.Button1Click",
		"## Degraded Confidence",
		"junk.pas",
		"missing terminal end marker",
		"## External Dependencies",
		"Forms",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdown_TokenBudget(t *testing.T) {
	md := NewRenderer(1).Markdown(fixtureModel())

	if !strings.Contains(md, "[Omitted:") {
		t.Errorf("tight budget did not produce omission marker:\n%s", md)
	}
	if strings.Contains(md, "## External Dependencies") {
		t.Error("trailing section rendered despite exhausted budget")
	}
}

func TestMarkdown_EmptySectionsSkipped(t *testing.T) {
	pm := &model.ProjectModel{Totals: model.Totals{}}
	md := NewRenderer(0).Markdown(pm)

	if strings.Contains(md, "## Dependency Cycles") {
		t.Error("cycle section rendered for model without cycles")
	}
	if strings.Contains(md, "## Degraded Confidence") {
		t.Error("warnings section rendered for clean model")
	}
}
