// Package dfm extracts the component tree of Delphi form definition files.
package dfm

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

var (
	objectRe     = regexp.MustCompile(`(?i)\bobject\s+([A-Za-z_]\w*)\s*:\s*([A-Za-z_]\w*)`)
	dataSourceRe = regexp.MustCompile(`(?i)\bDataSource\s*=\s*([A-Za-z_]\w*)`)
	queryTypeRe  = regexp.MustCompile(`(?i)^T\w*Query$`)
)

// Data-aware control types: controls bound to a dataset field or source.
var dataAwareTypes = map[string]bool{
	"tdbedit":           true,
	"tdbgrid":           true,
	"tdbcombobox":       true,
	"tdbmemo":           true,
	"tdbcheckbox":       true,
	"tdblookupcombobox": true,
	"tdbnavigator":      true,
	"tdbimage":          true,
}

// Parse extracts the form structure from .dfm text. The first object in the
// file names the form itself; nested objects are its components. Returns
// nil when no object header is present.
func Parse(path, raw string) *model.FormFile {
	matches := objectRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	form := &model.FormFile{
		Name:     matches[0][1],
		FilePath: path,
	}

	for _, m := range matches[1:] {
		name, typ := m[1], m[2]
		form.Components = append(form.Components, model.FormComponent{
			Name:      name,
			Type:      typ,
			DataAware: dataAwareTypes[strings.ToLower(typ)],
		})
		if queryTypeRe.MatchString(typ) {
			form.Queries = append(form.Queries, name)
		}
	}

	seen := make(map[string]bool)
	for _, m := range dataSourceRe.FindAllStringSubmatch(raw, -1) {
		if !seen[strings.ToLower(m[1])] {
			seen[strings.ToLower(m[1])] = true
			form.DataSources = append(form.DataSources, m[1])
		}
	}
	sort.Strings(form.DataSources)

	return form
}
