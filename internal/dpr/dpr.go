// Package dpr extracts structure from Delphi program files.
package dpr

import (
	"regexp"

	"github.com/pascan/pascan/internal/model"
	"github.com/pascan/pascan/internal/scanner"
)

var (
	programRe    = regexp.MustCompile(`(?i)\bprogram\s+([A-Za-z_]\w*)\s*;`)
	createFormRe = regexp.MustCompile(`(?i)\bApplication\s*\.\s*CreateForm\s*\(\s*([A-Za-z_]\w*)`)
)

// Parse extracts the program name, form creation order and uses clause from
// .dpr text. The first Application.CreateForm call names the main form.
// Returns nil when no program header is present.
func Parse(path, raw string) *model.ProjectFile {
	masked := scanner.Mask(raw)

	m := programRe.FindStringSubmatch(masked)
	if m == nil {
		return nil
	}

	pf := &model.ProjectFile{
		Name:        m[1],
		FilePath:    path,
		UsesClauses: scanner.ParseUses(masked),
	}

	for _, cf := range createFormRe.FindAllStringSubmatch(masked, -1) {
		pf.Forms = append(pf.Forms, cf[1])
	}
	if len(pf.Forms) > 0 {
		pf.MainForm = pf.Forms[0]
	}

	return pf
}
