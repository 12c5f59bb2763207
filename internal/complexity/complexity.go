// Package complexity computes a static textual approximation of routine
// complexity. It counts decision-introducing keywords in masked body text;
// it is not a control-flow-graph analysis and must not be treated as a
// compiler-grade metric.
package complexity

import (
	"regexp"
	"strings"

	"github.com/pascan/pascan/internal/model"
)

// ":=" is matched as one token so assignments inside case blocks are not
// mistaken for branch labels.
var tokenRe = regexp.MustCompile(`[A-Za-z_]\w*|:=|[;:]`)

// block kinds on the open-block stack.
const (
	blockBegin = iota
	blockCase
	blockRepeat
	blockTry
	blockAsm
)

type block struct {
	kind    int
	counted bool // whether this block contributed to nesting depth
}

// Estimate computes the cyclomatic complexity and maximum nesting depth of
// a routine body. The body must be masked (no comments or string literals).
// Cyclomatic complexity is 1 plus the count of decision constructs: if,
// while, for, repeat, case branch labels, exception on-handlers, and
// and/or operators inside conditions. Nesting depth counts blocks opened
// after a decision construct; unmatched blocks are capped at end of input.
func Estimate(body string) model.ComplexityMetric {
	m := model.ComplexityMetric{Cyclomatic: 1}

	var (
		stack      []block
		pending    bool // a decision construct awaits its block
		inCond     bool // between if/while/until and then/do/;
		depth, max int
	)

	push := func(kind int, counted bool) {
		stack = append(stack, block{kind: kind, counted: counted})
		if counted {
			depth++
			if depth > max {
				max = depth
			}
		}
	}
	pop := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.counted {
			depth--
		}
	}
	inner := func() int {
		if len(stack) == 0 {
			return -1
		}
		return stack[len(stack)-1].kind
	}

	for _, tok := range tokenRe.FindAllString(body, -1) {
		switch strings.ToLower(tok) {
		case "if", "while":
			m.Cyclomatic++
			pending = true
			inCond = true
		case "for":
			m.Cyclomatic++
			pending = true
		case "on":
			// Exception handler clause inside an except block.
			m.Cyclomatic++
			pending = true
		case "else":
			pending = true
		case "then", "do":
			inCond = false
		case "and", "or":
			if inCond {
				m.Cyclomatic++
			}
		case "begin":
			push(blockBegin, pending)
			pending = false
		case "case":
			// The case keyword itself is not counted; its branch labels are.
			push(blockCase, true)
			pending = false
			inCond = false
		case "repeat":
			m.Cyclomatic++
			push(blockRepeat, true)
			pending = false
		case "try":
			push(blockTry, false)
			pending = false
		case "asm":
			push(blockAsm, false)
			pending = false
		case "record":
			// Inline record in a local type block; treat as a plain block
			// so its end does not close a counted one.
			push(blockBegin, false)
		case "end":
			pop()
			pending = false
		case "until":
			pop()
			inCond = true
		case ":":
			// A colon directly inside a case block is a branch label.
			if inner() == blockCase {
				m.Cyclomatic++
				pending = true
			}
		case ";":
			pending = false
			inCond = false
		}
	}

	m.MaxNestingDepth = max
	return m
}
