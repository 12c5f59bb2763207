// Package sqlscan finds SQL statements embedded in unit code and the
// data-access components and technologies a project relies on.
package sqlscan

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

// SQL statements live inside string literals, so these patterns run on the
// raw unit text, never on masked text.
var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.SQL\.Add\s*\(\s*'([^']*)'`),
	regexp.MustCompile(`(?i)\.SQL\.Text\s*:=\s*'([^']*)'`),
	regexp.MustCompile(`(?i)\bExecSQL\s*\(\s*'([^']*)'`),
}

var dbComponentRe = regexp.MustCompile(`(?i)\b([A-Za-z_]\w*)\s*:\s*` +
	`(TQuery|TTable|TDataSource|TDatabase|TADOQuery|TADOTable|TADOConnection|TFDQuery|TFDConnection|TIBQuery|TSQLQuery)\b`)

// minSQLLength filters out trivial fragments like "(" or ") ".
const minSQLLength = 6

// Queries extracts embedded SQL statements from raw unit text in order of
// appearance.
func Queries(raw string) []model.SQLQuery {
	var out []model.SQLQuery
	for _, re := range sqlPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(raw, -1) {
			text := strings.TrimSpace(raw[m[2]:m[3]])
			if len(text) < minSQLLength {
				continue
			}
			out = append(out, model.SQLQuery{
				Text: text,
				Kind: Classify(text),
				Line: strings.Count(raw[:m[0]], "\n") + 1,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// Classify determines the statement kind from its leading keyword.
func Classify(sql string) model.SQLStatementKind {
	s := strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(s, "SELECT"):
		return model.SQLSelect
	case strings.HasPrefix(s, "INSERT"):
		return model.SQLInsert
	case strings.HasPrefix(s, "UPDATE"):
		return model.SQLUpdate
	case strings.HasPrefix(s, "DELETE"):
		return model.SQLDelete
	default:
		return model.SQLOther
	}
}

// Components finds declared data-access components in masked unit text.
func Components(masked string) []model.DatabaseComponent {
	var out []model.DatabaseComponent
	seen := make(map[string]bool)
	for _, m := range dbComponentRe.FindAllStringSubmatch(masked, -1) {
		key := strings.ToLower(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.DatabaseComponent{Name: m[1], Type: m[2]})
	}
	return out
}

// technology markers matched against uses-clause unit names.
var technologyMarkers = []struct {
	substr string
	name   string
}{
	{"ado", "ADO"},
	{"bde", "BDE"},
	{"ibx", "InterBase"},
	{"firedac", "FireDAC"},
	{"dbxpress", "dbExpress"},
}

// Technologies identifies data-access technologies from the uses clauses of
// every analyzed unit. The result is sorted and deduplicated.
func Technologies(units []model.SourceUnit) []string {
	found := make(map[string]bool)
	for _, u := range units {
		for _, use := range u.UsesClauses {
			lower := strings.ToLower(use)
			for _, marker := range technologyMarkers {
				if strings.Contains(lower, marker.substr) {
					found[marker.name] = true
				}
			}
		}
	}

	out := make([]string, 0, len(found))
	for name := range found {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
