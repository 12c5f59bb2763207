package classify

import (
	"regexp"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

// Base type names recognized in ancestor chains. Matching is by declared
// name, case-insensitive; the classifier never resolves symbols, so a
// descendant of a project-local form base is not recognized as a Form.
var (
	formBases       = []string{"TForm", "TFrame", "TCustomForm"}
	dataModuleBases = []string{"TDataModule", "TCustomDataModule"}
)

var (
	classDeclRe     = regexp.MustCompile(`(?im)^\s*([A-Za-z_]\w*)\s*=\s*(class|interface|dispinterface)\b([^\n]*)`)
	ancestorListRe  = regexp.MustCompile(`^\s*\(([^)]*)\)`)
	classOfRe       = regexp.MustCompile(`(?i)^\s*of\b`)
	otherTypeDeclRe = regexp.MustCompile(`(?im)^\s*([A-Za-z_]\w*)\s*=\s*(record\b|packed\s+record\b|set\s+of\b|array\b|\^|\(|[A-Za-z_])`)

	// Structured type bodies; member lines inside them are not declarations.
	bodyOpenRe    = regexp.MustCompile(`(?i)=\s*(packed\s+)?(class|interface|dispinterface|record|object)\b`)
	bodyForwardRe = regexp.MustCompile(`(?i)=\s*(class|interface|dispinterface)\s*(\([^)]*\))?\s*;`)
	metaclassRe   = regexp.MustCompile(`(?i)=\s*class\s+of\b`)
	bodyEndRe     = regexp.MustCompile(`(?i)^\s*end\s*;`)
)

// decl is a parsed type declaration heading, before categorization.
type decl struct {
	name       string
	keyword    string // "class", "interface" or "dispinterface"
	ancestors  []string
	interfaces []string
	line       int
}

// rule maps a predicate over the declared ancestry to a category. Rules are
// evaluated in order; first match wins.
type rule struct {
	category model.TypeCategory
	matches  func(d decl) bool
}

var rules = []rule{
	{model.CategoryForm, func(d decl) bool {
		return d.keyword == "class" && chainContains(d.ancestors, formBases)
	}},
	{model.CategoryDataModule, func(d decl) bool {
		return d.keyword == "class" && chainContains(d.ancestors, dataModuleBases)
	}},
	// Any class without form or data-module semantics is a plain class;
	// this covers interfaced-object descendants and contract implementors.
	{model.CategoryClass, func(d decl) bool {
		return d.keyword == "class"
	}},
	{model.CategoryInterface, func(d decl) bool {
		return d.keyword == "interface" || d.keyword == "dispinterface"
	}},
}

// Types extracts and classifies every type declared in the given masked
// type zone. baseLine is the 1-based line of the zone's first line, used to
// report absolute declaration lines. Classification of one type never
// depends on another, so declarations are handled independently in
// declaration order.
func Types(zone string, baseLine int) []model.TypeDeclaration {
	var out []model.TypeDeclaration
	seen := make(map[string]bool)

	for _, m := range classDeclRe.FindAllStringSubmatchIndex(zone, -1) {
		name := zone[m[2]:m[3]]
		keyword := strings.ToLower(zone[m[4]:m[5]])
		rest := zone[m[6]:m[7]]

		// "class of TSomething" is a metaclass alias, not a declaration.
		if classOfRe.MatchString(rest) {
			seen[strings.ToLower(name)] = true
			continue
		}

		d := decl{
			name:    name,
			keyword: keyword,
			line:    lineOf(zone, m[2], baseLine),
		}
		if am := ancestorListRe.FindStringSubmatch(rest); am != nil {
			d.ancestors = splitNames(am[1])
			if keyword == "class" && len(d.ancestors) > 1 {
				// Convention: the first entry is the class ancestor, the
				// rest are implemented interfaces.
				d.interfaces = d.ancestors[1:]
			}
		}

		out = append(out, categorize(d))
		seen[strings.ToLower(name)] = true
	}

	// Remaining declarations (records, aliases, enums, pointers) are kept
	// for documentation but excluded from category-specific statistics. The
	// scan runs over top-level lines only: class-scoped constants and fields
	// are not declarations.
	flat := maskBodies(zone)
	for _, m := range otherTypeDeclRe.FindAllStringSubmatchIndex(flat, -1) {
		name := flat[m[2]:m[3]]
		if seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, model.TypeDeclaration{
			Name:     name,
			Category: model.CategoryUnknown,
			Line:     lineOf(flat, m[2], baseLine),
		})
	}

	return out
}

// maskBodies blanks every line inside an open class/interface/record body,
// keeping line structure so reported line numbers stay correct.
func maskBodies(zone string) string {
	var sb strings.Builder
	depth := 0

	for _, l := range strings.SplitAfter(zone, "\n") {
		opens := bodyOpenRe.MatchString(l) && !bodyForwardRe.MatchString(l) && !metaclassRe.MatchString(l)
		if depth == 0 {
			sb.WriteString(l)
			if opens {
				depth++
			}
			continue
		}
		if opens {
			depth++
		} else if bodyEndRe.MatchString(l) {
			depth--
		}
		if strings.HasSuffix(l, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// categorize applies the ordered rule list. Category is assigned exactly
// once and never reassigned afterwards.
func categorize(d decl) model.TypeDeclaration {
	td := model.TypeDeclaration{
		Name:                  d.name,
		Category:              model.CategoryUnknown,
		Ancestors:             d.ancestors,
		ImplementedInterfaces: d.interfaces,
		Line:                  d.line,
	}
	for _, r := range rules {
		if r.matches(d) {
			td.Category = r.category
			break
		}
	}
	return td
}

func chainContains(ancestors, bases []string) bool {
	for _, a := range ancestors {
		for _, b := range bases {
			if strings.EqualFold(a, b) {
				return true
			}
		}
	}
	return false
}

func splitNames(list string) []string {
	var out []string
	for _, n := range strings.Split(list, ",") {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func lineOf(zone string, offset, baseLine int) int {
	return baseLine + strings.Count(zone[:offset], "\n")
}
