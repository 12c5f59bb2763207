package model

import "strings"

// TypeCategory classifies a declared type by its ancestry.
type TypeCategory string

const (
	CategoryForm       TypeCategory = "form"
	CategoryDataModule TypeCategory = "datamodule"
	CategoryClass      TypeCategory = "class"
	CategoryInterface  TypeCategory = "interface"
	CategoryUnknown    TypeCategory = "unknown"
)

// MethodKind distinguishes procedures from functions.
type MethodKind string

const (
	KindProcedure MethodKind = "procedure"
	KindFunction  MethodKind = "function"
)

// PurposeTag is descriptive metadata about what a routine is for.
// It drives no analysis logic itself; documentation consumers read it.
type PurposeTag string

const (
	PurposeEventHandler      PurposeTag = "event_handler"
	PurposeConstructor       PurposeTag = "constructor"
	PurposeGeneralProcessing PurposeTag = "general_processing"
	PurposeUnknown           PurposeTag = "unknown"
)

// ComplexityMetric is a static textual approximation of routine complexity,
// not a control-flow-graph analysis. Cyclomatic is never below 1.
type ComplexityMetric struct {
	Cyclomatic      int `json:"cyclomatic"`
	MaxNestingDepth int `json:"max_nesting_depth"`
}

// Parameter is one (name, type) entry of a routine signature.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// MethodDeclaration describes one procedure or function found in the
// implementation section of a unit.
type MethodDeclaration struct {
	Name          string           `json:"name"`
	Kind          MethodKind       `json:"kind"`
	EnclosingType string           `json:"enclosing_type,omitempty"`
	Parameters    []Parameter      `json:"parameters,omitempty"`
	ReturnType    string           `json:"return_type,omitempty"`
	Purpose       PurposeTag       `json:"purpose"`
	Complexity    ComplexityMetric `json:"complexity"`
	Line          int              `json:"line,omitempty"`
	ParseWarning  bool             `json:"parse_warning,omitempty"`
}

// TypeDeclaration describes one type declared in a unit's type block.
// Category is assigned once by the classifier and never reassigned.
// Ancestors preserve declaration order, primary ancestor first.
type TypeDeclaration struct {
	Name                  string              `json:"name"`
	Category              TypeCategory        `json:"category"`
	Ancestors             []string            `json:"ancestors,omitempty"`
	ImplementedInterfaces []string            `json:"implemented_interfaces,omitempty"`
	Methods               []MethodDeclaration `json:"methods,omitempty"`
	Line                  int                 `json:"line,omitempty"`
}

// SQLStatementKind classifies an embedded SQL statement.
type SQLStatementKind string

const (
	SQLSelect SQLStatementKind = "SELECT"
	SQLInsert SQLStatementKind = "INSERT"
	SQLUpdate SQLStatementKind = "UPDATE"
	SQLDelete SQLStatementKind = "DELETE"
	SQLOther  SQLStatementKind = "OTHER"
)

// SQLQuery is an SQL statement embedded in unit code via query components.
type SQLQuery struct {
	Text string           `json:"text"`
	Kind SQLStatementKind `json:"kind"`
	Line int              `json:"line,omitempty"`
}

// DatabaseComponent is a declared data-access component (TQuery, TTable, ...).
type DatabaseComponent struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SourceUnit is the analyzed structural model of one Pascal unit file.
// It is created during a single pass over the file and never mutated after
// analysis completes.
type SourceUnit struct {
	Name               string              `json:"name"`
	FilePath           string              `json:"file_path"`
	LineCount          int                 `json:"line_count"`
	UsesClauses        []string            `json:"uses_clauses,omitempty"`
	Types              []TypeDeclaration   `json:"types,omitempty"`
	FreeRoutines       []MethodDeclaration `json:"free_routines,omitempty"`
	SQLQueries         []SQLQuery          `json:"sql_queries,omitempty"`
	DatabaseComponents []DatabaseComponent `json:"database_components,omitempty"`
	Form               *FormFile           `json:"form,omitempty"`
	Truncated          bool                `json:"truncated,omitempty"`
}

// FormComponent is one component found in a .dfm object tree.
type FormComponent struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	DataAware bool   `json:"data_aware,omitempty"`
}

// FormFile is the parsed structure of a .dfm form definition file.
type FormFile struct {
	Name        string          `json:"name"`
	FilePath    string          `json:"file_path"`
	Components  []FormComponent `json:"components,omitempty"`
	DataSources []string        `json:"data_sources,omitempty"`
	Queries     []string        `json:"queries,omitempty"`
}

// ProjectFile is the parsed structure of a .dpr program file.
type ProjectFile struct {
	Name        string   `json:"name"`
	FilePath    string   `json:"file_path"`
	MainForm    string   `json:"main_form,omitempty"`
	Forms       []string `json:"forms,omitempty"`
	UsesClauses []string `json:"uses_clauses,omitempty"`
}

// DependencyEdge is a directed unit-level dependency, deduplicated, with no
// self-edges.
type DependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ExternalDependency records a uses-clause target that is not part of the
// analyzed project (a library or RTL unit).
type ExternalDependency struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Cycle is a closed loop of unit names, canonicalized to start at the
// lexicographically smallest member.
type Cycle struct {
	Units []string `json:"units"`
}

// SkippedFile records an input file that contributed nothing to the model.
type SkippedFile struct {
	FilePath string `json:"file_path"`
	Reason   string `json:"reason"`
}

// Totals holds project-wide summary counters. Sums of per-unit counts; no
// per-unit value is altered during aggregation.
type Totals struct {
	Units           int `json:"units"`
	Forms           int `json:"forms"`
	DataModules     int `json:"datamodules"`
	Classes         int `json:"classes"`
	Interfaces      int `json:"interfaces"`
	UnknownTypes    int `json:"unknown_types"`
	Methods         int `json:"methods"`
	TotalComplexity int `json:"total_complexity"`
	SQLQueries      int `json:"sql_queries"`
}

// Meta describes one analysis run.
type Meta struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
	Duration    string `json:"duration"`
	FileCount   int    `json:"file_count"`
}

// ProjectModel is the complete, immutable structural summary of an analyzed
// source tree. A new run produces a new ProjectModel; nothing is mutated
// after aggregation completes.
type ProjectModel struct {
	Meta                 Meta                 `json:"meta"`
	Units                []SourceUnit         `json:"units"`
	Project              *ProjectFile         `json:"project,omitempty"`
	Edges                []DependencyEdge     `json:"edges,omitempty"`
	ExternalDependencies []ExternalDependency `json:"external_dependencies,omitempty"`
	Cycles               []Cycle              `json:"cycles,omitempty"`
	Skipped              []SkippedFile        `json:"skipped,omitempty"`
	Technologies         []string             `json:"technologies,omitempty"`
	Totals               Totals               `json:"totals"`
}

// UnitByName returns the unit with the given name, case-insensitively, or nil.
func (pm *ProjectModel) UnitByName(name string) *SourceUnit {
	for i := range pm.Units {
		if strings.EqualFold(pm.Units[i].Name, name) {
			return &pm.Units[i]
		}
	}
	return nil
}
