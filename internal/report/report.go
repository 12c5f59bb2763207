// Package report serializes a ProjectModel for downstream collaborators:
// a canonical JSON export and a compact markdown summary.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

// CanonicalJSON serializes the model payload with run metadata zeroed out,
// so two runs over unchanged input are byte-identical. Field ordering is
// already stable: units sorted by file path, methods in declaration order.
func CanonicalJSON(pm *model.ProjectModel) ([]byte, error) {
	payload := *pm
	payload.Meta = model.Meta{}
	data, err := json.MarshalIndent(&payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling project model: %w", err)
	}
	return append(data, '\n'), nil
}

// MetaJSON serializes the run metadata separately from the canonical model.
func MetaJSON(pm *model.ProjectModel) ([]byte, error) {
	data, err := json.MarshalIndent(pm.Meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling run meta: %w", err)
	}
	return append(data, '\n'), nil
}

// section holds a rendered section with its display name.
type section struct {
	name    string
	content string
}

// Renderer produces the markdown project summary.
type Renderer struct {
	maxTokens int
}

// NewRenderer creates a Renderer with the given token budget.
func NewRenderer(maxTokens int) *Renderer {
	if maxTokens <= 0 {
		maxTokens = 16000
	}
	return &Renderer{maxTokens: maxTokens}
}

// Markdown renders the summary. Sections are ordered by priority; trailing
// sections are omitted first when the token budget is tight.
func (r *Renderer) Markdown(pm *model.ProjectModel) string {
	sections := []section{
		{"Overview", r.renderOverview(pm)},
		{"Units", r.renderUnits(pm)},
		{"Dependency Cycles", r.renderCycles(pm)},
		{"Complexity Hotspots", r.renderHotspots(pm)},
		{"Degraded Confidence", r.renderWarnings(pm)},
		{"External Dependencies", r.renderExternals(pm)},
	}

	header := "# Project Structure\n\n"
	maxChars := r.maxTokens * 4 // rough estimate: 1 token ~= 4 chars
	remaining := maxChars - len(header)

	var sb strings.Builder
	sb.WriteString(header)

	for i, sec := range sections {
		if sec.content == "" {
			continue
		}
		if len(sec.content) <= remaining {
			sb.WriteString(sec.content)
			remaining -= len(sec.content)
			continue
		}
		var omitted []string
		for _, s := range sections[i:] {
			if s.content != "" {
				omitted = append(omitted, s.name)
			}
		}
		sb.WriteString(fmt.Sprintf("\n---\n*[Omitted: %s]*\n", strings.Join(omitted, ", ")))
		break
	}

	return sb.String()
}

func (r *Renderer) renderOverview(pm *model.ProjectModel) string {
	var sb strings.Builder
	sb.WriteString("## Overview\n\n")
	if pm.Project != nil {
		sb.WriteString(fmt.Sprintf("Program: **%s**", pm.Project.Name))
		if pm.Project.MainForm != "" {
			sb.WriteString(fmt.Sprintf(" (main form %s)", pm.Project.MainForm))
		}
		sb.WriteString("\n\n")
	}
	t := pm.Totals
	sb.WriteString(fmt.Sprintf("- Units: %d\n", t.Units))
	sb.WriteString(fmt.Sprintf("- Forms: %d, DataModules: %d, Classes: %d, Interfaces: %d\n",
		t.Forms, t.DataModules, t.Classes, t.Interfaces))
	sb.WriteString(fmt.Sprintf("- Methods: %d (total cyclomatic complexity %d)\n", t.Methods, t.TotalComplexity))
	if t.SQLQueries > 0 {
		sb.WriteString(fmt.Sprintf("- Embedded SQL statements: %d\n", t.SQLQueries))
	}
	if len(pm.Technologies) > 0 {
		sb.WriteString(fmt.Sprintf("- Data-access technologies: %s\n", strings.Join(pm.Technologies, ", ")))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *Renderer) renderUnits(pm *model.ProjectModel) string {
	if len(pm.Units) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Units\n\n")
	for _, u := range pm.Units {
		methods := len(u.FreeRoutines)
		for _, td := range u.Types {
			methods += len(td.Methods)
		}
		sb.WriteString(fmt.Sprintf("- **%s** (`%s`, %d lines): %d types, %d methods",
			u.Name, u.FilePath, u.LineCount, len(u.Types), methods))
		if u.Truncated {
			sb.WriteString(" — truncated")
		}
		sb.WriteString("\n")
		for _, td := range u.Types {
			sb.WriteString(fmt.Sprintf("  - %s [%s]", td.Name, td.Category))
			if len(td.Ancestors) > 0 {
				sb.WriteString(fmt.Sprintf(" < %s", strings.Join(td.Ancestors, ", ")))
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *Renderer) renderCycles(pm *model.ProjectModel) string {
	if len(pm.Cycles) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Dependency Cycles\n\n")
	for _, c := range pm.Cycles {
		sb.WriteString(fmt.Sprintf("- %s -> %s\n", strings.Join(c.Units, " -> "), c.Units[0]))
	}
	sb.WriteString("\n")
	return sb.String()
}

// hotspot pairs a method with its location for ranking.
type hotspot struct {
	unit   string
	owner  string
	method model.MethodDeclaration
}

func (r *Renderer) renderHotspots(pm *model.ProjectModel) string {
	var all []hotspot
	for _, u := range pm.Units {
		for _, td := range u.Types {
			for _, md := range td.Methods {
				all = append(all, hotspot{u.Name, td.Name, md})
			}
		}
		for _, md := range u.FreeRoutines {
			all = append(all, hotspot{u.Name, "", md})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].method.Complexity.Cyclomatic > all[j].method.Complexity.Cyclomatic
	})

	var sb strings.Builder
	sb.WriteString("## Complexity Hotspots\n\n")
	count := 0
	for _, h := range all {
		if h.method.Complexity.Cyclomatic < 2 || count >= 10 {
			break
		}
		name := h.method.Name
		if h.owner != "" {
			name = h.owner + "." + name
		}
		sb.WriteString(fmt.Sprintf("- %s (%s): cyclomatic %d, nesting %d\n",
			name, h.unit, h.method.Complexity.Cyclomatic, h.method.Complexity.MaxNestingDepth))
		count++
	}
	if count == 0 {
		return ""
	}
	sb.WriteString("\n")
	return sb.String()
}

// renderWarnings surfaces every degraded-confidence marker; downstream
// documentation quality depends on these being visible, not hidden.
func (r *Renderer) renderWarnings(pm *model.ProjectModel) string {
	var lines []string
	for _, s := range pm.Skipped {
		lines = append(lines, fmt.Sprintf("- skipped %s: %s", s.FilePath, s.Reason))
	}
	for _, u := range pm.Units {
		if u.Truncated {
			lines = append(lines, fmt.Sprintf("- %s: missing terminal end marker, scanned to end of file", u.Name))
		}
		for _, td := range u.Types {
			for _, md := range td.Methods {
				if md.ParseWarning {
					lines = append(lines, fmt.Sprintf("- %s.%s (%s): signature partially unparsed", td.Name, md.Name, u.Name))
				}
			}
		}
		for _, md := range u.FreeRoutines {
			if md.ParseWarning {
				lines = append(lines, fmt.Sprintf("- %s (%s): signature partially unparsed", md.Name, u.Name))
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "## Degraded Confidence\n\n" + strings.Join(lines, "\n") + "\n\n"
}

func (r *Renderer) renderExternals(pm *model.ProjectModel) string {
	if len(pm.ExternalDependencies) == 0 {
		return ""
	}
	byTarget := make(map[string][]string)
	for _, e := range pm.ExternalDependencies {
		byTarget[e.To] = append(byTarget[e.To], e.From)
	}
	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	var sb strings.Builder
	sb.WriteString("## External Dependencies\n\n")
	for _, t := range targets {
		sb.WriteString(fmt.Sprintf("- %s (used by %s)\n", t, strings.Join(byTarget[t], ", ")))
	}
	sb.WriteString("\n")
	return sb.String()
}
