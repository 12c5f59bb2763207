// Package server exposes the analyzer over the Model Context Protocol so
// documentation and migration tooling can drive analysis and query the
// resulting project model.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pascan/pascan/internal/analyzer"
	"github.com/pascan/pascan/internal/config"
	"github.com/pascan/pascan/internal/loader"
	"github.com/pascan/pascan/internal/model"
	"github.com/pascan/pascan/internal/report"
)

// Server wraps the MCP server around the analyzer. Each analyze_project
// call replaces the held model wholesale; no state leaks between runs.
type Server struct {
	mcp *mcp.Server
	cfg *config.Config

	mu    sync.RWMutex
	model *model.ProjectModel
}

// New creates an MCP server wired to a fresh analyzer.
func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "pascan",
		Version: "0.1.0",
	}, nil)
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	log.Println("[server] starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// SetModel installs an already-analyzed model, e.g. loaded before serving.
func (s *Server) SetModel(pm *model.ProjectModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = pm
}

func (s *Server) currentModel() *model.ProjectModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// registerResources adds read-only views of the current model.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         "pascan://model/report",
		Name:        "Project Report",
		Description: "Markdown summary of the analyzed legacy project",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		pm := s.currentModel()
		if pm == nil {
			return nil, fmt.Errorf("no model available (run analyze_project first)")
		}
		md := report.NewRenderer(s.cfg.Output.MaxReportTokens).Markdown(pm)
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: md, MIMEType: "text/markdown"},
			},
		}, nil
	})

	s.mcp.AddResource(&mcp.Resource{
		URI:         "pascan://model/json",
		Name:        "Project Model",
		Description: "Complete structural model in canonical JSON",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		pm := s.currentModel()
		if pm == nil {
			return nil, fmt.Errorf("no model available (run analyze_project first)")
		}
		data, err := report.CanonicalJSON(pm)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: string(data), MIMEType: "application/json"},
			},
		}, nil
	})

	s.mcp.AddResource(&mcp.Resource{
		URI:         "pascan://model/meta",
		Name:        "Run Metadata",
		Description: "Metadata about the last analysis run",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		pm := s.currentModel()
		if pm == nil {
			return nil, fmt.Errorf("no model available (run analyze_project first)")
		}
		data, err := report.MetaJSON(pm)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: string(data), MIMEType: "application/json"},
			},
		}, nil
	})
}

// analyzeProjectArgs are the arguments for the analyze_project tool.
type analyzeProjectArgs struct {
	Path string `json:"path,omitempty" jsonschema:"Path to the extracted legacy project directory. Defaults to the configured project path."`
}

// queryUnitsArgs are the arguments for the query_units tool.
type queryUnitsArgs struct {
	Category string `json:"category,omitempty" jsonschema:"Filter by declared type category: form, datamodule, class, interface, or unknown"`
	Name     string `json:"name,omitempty" jsonschema:"Filter by unit name (case-insensitive exact match)"`
}

// showUnitArgs are the arguments for the show_unit tool.
type showUnitArgs struct {
	Name string `json:"name" jsonschema:"required,Unit name to show"`
}

// getDependenciesArgs is empty; the tool takes no arguments.
type getDependenciesArgs struct{}

// registerTools adds analysis and query tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_project",
		Description: "Analyze a legacy Delphi project directory. Scans units, classifies types, extracts methods and complexity, and builds the dependency graph.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeProjectArgs) (*mcp.CallToolResult, any, error) {
		path := args.Path
		if path == "" {
			path = s.cfg.Project
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid project path: %v", err)), nil, nil
		}

		files, err := loader.Load(absPath, s.cfg.Ignore)
		if err != nil {
			return errorResult(fmt.Sprintf("loading project: %v", err)), nil, nil
		}

		a := analyzer.New(analyzer.Options{
			Workers:       s.cfg.Workers,
			EventSuffixes: s.cfg.EventSuffixes,
			EventPrefixes: s.cfg.EventPrefixes,
		})
		pm, err := a.Analyze(ctx, files)
		if err != nil {
			return errorResult(fmt.Sprintf("analysis failed: %v", err)), nil, nil
		}
		s.SetModel(pm)

		summary := fmt.Sprintf(
			"Analysis complete.\n\n"+
				"- Units: %d\n"+
				"- Forms: %d, DataModules: %d, Classes: %d\n"+
				"- Methods: %d\n"+
				"- Dependency edges: %d (cycles: %d)\n"+
				"- Skipped files: %d\n\n"+
				"Use the pascan://model/report resource for the full summary.",
			pm.Totals.Units, pm.Totals.Forms, pm.Totals.DataModules, pm.Totals.Classes,
			pm.Totals.Methods, len(pm.Edges), len(pm.Cycles), len(pm.Skipped))

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: summary}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query_units",
		Description: "Query analyzed units by declared type category or by unit name. Returns matching units as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args queryUnitsArgs) (*mcp.CallToolResult, any, error) {
		pm := s.currentModel()
		if pm == nil {
			return errorResult("No model available. Run analyze_project first."), nil, nil
		}

		matched := []model.SourceUnit{}
		for _, u := range pm.Units {
			if args.Name != "" && !strings.EqualFold(u.Name, args.Name) {
				continue
			}
			if args.Category != "" && !unitDeclares(u, model.TypeCategory(strings.ToLower(args.Category))) {
				continue
			}
			matched = append(matched, u)
		}

		data, err := json.MarshalIndent(matched, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal results: %v", err)), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "show_unit",
		Description: "Show the full structural model of one unit: types, methods, complexity, SQL statements and form components.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args showUnitArgs) (*mcp.CallToolResult, any, error) {
		pm := s.currentModel()
		if pm == nil {
			return errorResult("No model available. Run analyze_project first."), nil, nil
		}
		if args.Name == "" {
			return errorResult("name is required"), nil, nil
		}

		u := pm.UnitByName(args.Name)
		if u == nil {
			return errorResult(fmt.Sprintf("No unit named %q", args.Name)), nil, nil
		}
		data, err := json.MarshalIndent(u, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal unit: %v", err)), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Return the unit dependency graph: internal edges, external library references, and detected cycles.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getDependenciesArgs) (*mcp.CallToolResult, any, error) {
		pm := s.currentModel()
		if pm == nil {
			return errorResult("No model available. Run analyze_project first."), nil, nil
		}

		payload := struct {
			Edges     []model.DependencyEdge     `json:"edges"`
			Externals []model.ExternalDependency `json:"external_dependencies"`
			Cycles    []model.Cycle              `json:"cycles"`
		}{pm.Edges, pm.ExternalDependencies, pm.Cycles}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to marshal graph: %v", err)), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil, nil
	})
}

func unitDeclares(u model.SourceUnit, cat model.TypeCategory) bool {
	for _, td := range u.Types {
		if td.Category == cat {
			return true
		}
	}
	return false
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
