package scanner

import (
	"errors"
	"regexp"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

// ErrMalformedUnit is returned when no unit, interface or implementation
// boundary can be located at all. The caller records the file in the skip
// list and continues with the rest of the batch.
var ErrMalformedUnit = errors.New("no unit, interface or implementation boundary found")

// Result holds the structural sections of one scanned unit. The zone texts
// are masked: comments and string literals are blanked out so downstream
// extractors never misread keyword-like substrings inside them. Masking
// preserves byte offsets and line structure.
type Result struct {
	Unit model.SourceUnit

	// Masked is the full unit text with comments and string literals
	// blanked out.
	Masked string

	// TypeZone is the masked text of the type-declaration blocks in the
	// interface part. TypeZoneLine is the 1-based line the zone starts on.
	TypeZone     string
	TypeZoneLine int

	// RoutineZone is the masked text following the implementation keyword.
	RoutineZone     string
	RoutineZoneLine int
}

var (
	unitHeaderRe     = regexp.MustCompile(`(?i)\bunit\s+([A-Za-z_][\w.]*)\s*;`)
	interfaceRe      = regexp.MustCompile(`(?im)^\s*interface\b`)
	implementationRe = regexp.MustCompile(`(?im)^\s*implementation\b`)
	usesRe           = regexp.MustCompile(`(?is)\buses\b(.*?);`)
	terminalEndRe    = regexp.MustCompile(`(?i)\bend\s*\.`)

	// Keywords that terminate a type-declaration block at the top level.
	typeBlockEndRe = regexp.MustCompile(`(?i)^\s*(var|const|threadvar|resourcestring|implementation|procedure|function|uses|end\s*\.)\b`)
	typeStartRe    = regexp.MustCompile(`(?i)^\s*type\b`)

	// Structured type bodies whose member lines must not end the block.
	bodyStartRe   = regexp.MustCompile(`(?i)=\s*(packed\s+)?(class|interface|dispinterface|record|object)\b`)
	bodyForwardRe = regexp.MustCompile(`(?i)=\s*(class|interface|dispinterface)\s*(\([^)]*\))?\s*;`)
	bodyClassOfRe = regexp.MustCompile(`(?i)=\s*class\s+of\b`)
	bodyEndRe     = regexp.MustCompile(`(?i)^\s*end\s*;`)
)

// Scan splits raw unit text into its structural sections and returns a
// SourceUnit with the uses clauses resolved. Missing end. is tolerated and
// reported via Truncated; only a file with no recognizable boundary at all
// fails with ErrMalformedUnit.
func Scan(path, raw string) (*Result, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	masked := Mask(raw)

	unitMatch := unitHeaderRe.FindStringSubmatchIndex(masked)
	ifaceMatch := interfaceRe.FindStringIndex(masked)
	implMatch := implementationRe.FindStringIndex(masked)

	if unitMatch == nil && ifaceMatch == nil && implMatch == nil {
		return nil, ErrMalformedUnit
	}

	unit := model.SourceUnit{
		FilePath:  path,
		LineCount: strings.Count(raw, "\n") + 1,
	}
	if unitMatch != nil {
		unit.Name = masked[unitMatch[2]:unitMatch[3]]
	}

	// Interface part: between interface and implementation (or whatever
	// boundaries exist). Implementation part: from implementation to EOF.
	ifaceStart := 0
	if ifaceMatch != nil {
		ifaceStart = ifaceMatch[1]
	} else if unitMatch != nil {
		ifaceStart = unitMatch[1]
	}
	ifaceEnd := len(masked)
	implStart := len(masked)
	if implMatch != nil {
		ifaceEnd = implMatch[0]
		implStart = implMatch[1]
	}

	ifacePart := masked[ifaceStart:ifaceEnd]
	implPart := masked[implStart:]

	// A unit may declare uses in both parts; union them preserving
	// first-seen order with case-insensitive dedup.
	unit.UsesClauses = unionUses(ParseUses(ifacePart), ParseUses(implPart))

	res := &Result{Unit: unit, Masked: masked}
	res.TypeZone, res.TypeZoneLine = collectTypeBlocks(ifacePart, lineAt(masked, ifaceStart))
	res.RoutineZone = implPart
	res.RoutineZoneLine = lineAt(masked, implStart)

	if !terminalEndRe.MatchString(masked) {
		res.Unit.Truncated = true
	}

	return res, nil
}

// Mask replaces comments ({ }, (* *), //) and string literals with spaces,
// keeping byte offsets and newlines intact. Pascal strings do not span
// lines; a quote left open is closed at end of line.
func Mask(raw string) string {
	b := []byte(raw)
	out := make([]byte, len(b))
	copy(out, b)

	const (
		code = iota
		braceComment
		parenComment
		lineComment
		stringLit
	)
	state := code

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch state {
		case code:
			switch {
			case c == '{':
				state = braceComment
				out[i] = ' '
			case c == '(' && i+1 < len(b) && b[i+1] == '*':
				state = parenComment
				out[i] = ' '
			case c == '/' && i+1 < len(b) && b[i+1] == '/':
				state = lineComment
				out[i] = ' '
			case c == '\'':
				state = stringLit
				out[i] = ' '
			}
		case braceComment:
			if c == '}' {
				state = code
			}
			if c != '\n' {
				out[i] = ' '
			}
		case parenComment:
			if c == ')' && i > 0 && b[i-1] == '*' {
				state = code
			}
			if c != '\n' {
				out[i] = ' '
			}
		case lineComment:
			if c == '\n' {
				state = code
			} else {
				out[i] = ' '
			}
		case stringLit:
			switch {
			case c == '\'' && i+1 < len(b) && b[i+1] == '\'':
				// Escaped quote: stay inside the literal.
				out[i] = ' '
				out[i+1] = ' '
				i++
			case c == '\'' || c == '\n':
				state = code
				if c != '\n' {
					out[i] = ' '
				}
			default:
				out[i] = ' '
			}
		}
	}
	return string(out)
}

// ParseUses extracts unit names from every uses clause in the given masked
// section, in declaration order.
func ParseUses(section string) []string {
	var names []string
	for _, m := range usesRe.FindAllStringSubmatch(section, -1) {
		for _, entry := range strings.Split(m[1], ",") {
			entry = strings.TrimSpace(entry)
			// dpr-style "Name in 'file.pas'" entries keep only the name;
			// the literal path was masked away already.
			if idx := strings.IndexAny(entry, " \t\n"); idx >= 0 {
				entry = entry[:idx]
			}
			if entry != "" {
				names = append(names, entry)
			}
		}
	}
	return names
}

// unionUses merges uses lists preserving first-seen order with
// case-insensitive deduplication.
func unionUses(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, name := range list {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}

// collectTypeBlocks gathers the text of every top-level type block in the
// interface part. Lines outside type blocks are blanked rather than removed
// so the zone keeps the interface part's line structure; baseLine is the
// 1-based line the zone starts on.
func collectTypeBlocks(ifacePart string, baseLine int) (string, int) {
	var sb strings.Builder
	inType := false
	bodyDepth := 0 // open class/interface/record bodies

	for _, l := range strings.SplitAfter(ifacePart, "\n") {
		switch {
		case !inType && typeStartRe.MatchString(l):
			inType = true
			bodyDepth = 0
			// Declarations may follow on the same line after "type".
			if rest := typeStartRe.ReplaceAllString(l, ""); strings.TrimSpace(rest) != "" {
				sb.WriteString(rest)
			} else {
				sb.WriteString("\n")
			}
		case inType && bodyDepth == 0 && typeBlockEndRe.MatchString(l):
			inType = false
			sb.WriteString("\n")
		case inType:
			// Member lines (fields, methods, end;) stay part of the zone
			// while a structured type body is open.
			if bodyStartRe.MatchString(l) && !bodyForwardRe.MatchString(l) && !bodyClassOfRe.MatchString(l) {
				bodyDepth++
			} else if bodyDepth > 0 && bodyEndRe.MatchString(l) {
				bodyDepth--
			}
			sb.WriteString(l)
		default:
			sb.WriteString("\n")
		}
	}
	return sb.String(), baseLine
}

// lineAt returns the 1-based line number of the given byte offset.
func lineAt(s string, offset int) int {
	if offset > len(s) {
		offset = len(s)
	}
	return strings.Count(s[:offset], "\n") + 1
}
