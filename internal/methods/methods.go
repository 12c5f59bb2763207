package methods

import (
	"regexp"
	"strings"

	"github.com/pascan/pascan/internal/complexity"
	"github.com/pascan/pascan/internal/model"
)

// Default event-handler name patterns. A routine whose name ends in one of
// the suffixes, or begins with one of the prefixes, is tagged as an event
// handler. The tag is descriptive metadata only.
var (
	DefaultEventSuffixes = []string{
		"Click", "Change", "Show", "Create", "Close", "Destroy",
		"Enter", "Exit", "KeyPress", "KeyDown", "KeyUp",
	}
	DefaultEventPrefixes = []string{"Form"}
)

var (
	// Full routine signature: keyword, optional TType. qualifier, name,
	// optional parameter list, optional return type, terminating semicolon.
	sigRe = regexp.MustCompile(`(?i)^(procedure|function|constructor|destructor)\s+` +
		`(?:([A-Za-z_]\w*)\s*\.\s*)?([A-Za-z_]\w*)\s*` +
		`(\([^)]*\))?\s*(?::\s*([A-Za-z_][\w.]*))?\s*;`)

	// Loose header used when the full signature does not parse; such
	// routines are kept with a parse warning rather than dropped.
	headRe = regexp.MustCompile(`(?im)^\s*(procedure|function|constructor|destructor)\s+` +
		`(?:([A-Za-z_]\w*)\s*\.\s*)?([A-Za-z_]\w*)`)

	paramGroupModRe = regexp.MustCompile(`(?i)^(const|var|out)\s+`)
)

// Extractor finds routine declarations in the implementation zone of a unit.
type Extractor struct {
	suffixes []string
	prefixes []string
}

// New creates an Extractor with the given event-handler name patterns.
// Empty slices fall back to the defaults.
func New(suffixes, prefixes []string) *Extractor {
	if len(suffixes) == 0 {
		suffixes = DefaultEventSuffixes
	}
	if len(prefixes) == 0 {
		prefixes = DefaultEventPrefixes
	}
	return &Extractor{suffixes: suffixes, prefixes: prefixes}
}

// Extract returns a MethodDeclaration for every routine found in the masked
// routine zone, in declaration order, each with its complexity already
// computed. Qualified routines carry their enclosing type name; the caller
// attaches them to classified types or to the unit's free-routine set.
func Extract(zone string, baseLine int, ex *Extractor) []model.MethodDeclaration {
	if ex == nil {
		ex = New(nil, nil)
	}

	heads := headRe.FindAllStringSubmatchIndex(zone, -1)
	out := make([]model.MethodDeclaration, 0, len(heads))

	for i, h := range heads {
		keyword := strings.ToLower(zone[h[2]:h[3]])
		enclosing := ""
		if h[4] >= 0 {
			enclosing = zone[h[4]:h[5]]
		}
		name := zone[h[6]:h[7]]

		// The routine's text runs until the next routine header.
		bodyEnd := len(zone)
		if i+1 < len(heads) {
			bodyEnd = heads[i+1][0]
		}
		segment := zone[h[0]:bodyEnd]

		md := model.MethodDeclaration{
			Name:          name,
			Kind:          kindOf(keyword),
			EnclosingType: enclosing,
			Line:          baseLine + strings.Count(zone[:h[2]], "\n"),
		}

		trimmed := strings.TrimLeft(segment, " \t\n")
		loc := sigRe.FindStringSubmatchIndex(trimmed)
		if loc == nil {
			// Garbled signature: keep the routine with best-effort fields.
			md.Purpose = model.PurposeUnknown
			md.ParseWarning = true
			md.Complexity = complexity.Estimate(segment)
			out = append(out, md)
			continue
		}

		if loc[8] >= 0 {
			md.Parameters = parseParams(trimmed[loc[8]:loc[9]])
		}
		if loc[10] >= 0 {
			md.ReturnType = trimmed[loc[10]:loc[11]]
		}
		md.Purpose = ex.purposeOf(keyword, name, enclosing)

		body := trimmed[loc[1]:]
		if isDeclarationOnly(body) {
			// forward/external routines have no body to measure.
			md.Complexity = model.ComplexityMetric{Cyclomatic: 1}
		} else {
			md.Complexity = complexity.Estimate(body)
		}
		out = append(out, md)
	}

	return out
}

func kindOf(keyword string) model.MethodKind {
	if keyword == "function" {
		return model.KindFunction
	}
	return model.KindProcedure
}

// purposeOf assigns the descriptive purpose tag. Declared constructors win;
// then event-handler name patterns; then the legacy convention of a method
// named after its enclosing type; everything else is general processing.
func (ex *Extractor) purposeOf(keyword, name, enclosing string) model.PurposeTag {
	if keyword == "constructor" {
		return model.PurposeConstructor
	}
	for _, s := range ex.suffixes {
		if len(name) > len(s) && strings.EqualFold(name[len(name)-len(s):], s) {
			return model.PurposeEventHandler
		}
	}
	for _, p := range ex.prefixes {
		if len(name) > len(p) && strings.EqualFold(name[:len(p)], p) {
			return model.PurposeEventHandler
		}
	}
	if enclosing != "" && strings.EqualFold(name, enclosing) {
		return model.PurposeConstructor
	}
	return model.PurposeGeneralProcessing
}

// parseParams splits "(a, b: Integer; const s: string)" into parameters in
// declaration order.
func parseParams(list string) []model.Parameter {
	list = strings.TrimSpace(list)
	list = strings.TrimPrefix(list, "(")
	list = strings.TrimSuffix(list, ")")
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var out []model.Parameter
	for _, group := range strings.Split(list, ";") {
		group = paramGroupModRe.ReplaceAllString(strings.TrimSpace(group), "")
		names, typ := group, ""
		if idx := strings.Index(group, ":"); idx >= 0 {
			names = group[:idx]
			typ = strings.TrimSpace(group[idx+1:])
			// Drop default values.
			if eq := strings.Index(typ, "="); eq >= 0 {
				typ = strings.TrimSpace(typ[:eq])
			}
		}
		for _, n := range strings.Split(names, ",") {
			n = strings.TrimSpace(n)
			if n != "" {
				out = append(out, model.Parameter{Name: n, Type: typ})
			}
		}
	}
	return out
}

var declOnlyRe = regexp.MustCompile(`(?i)^\s*(forward|external)\b`)

func isDeclarationOnly(body string) bool {
	return declOnlyRe.MatchString(strings.TrimSpace(body))
}
