package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type opKind byte

const (
	opEqual  opKind = ' '
	opDelete opKind = '-'
	opInsert opKind = '+'
)

// lineOp is one line of an edit script.
type lineOp struct {
	kind opKind
	text string
}

// DiffProcessor computes line-level edit scripts.
type DiffProcessor struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewDiffProcessor creates a new diff processor
func NewDiffProcessor() *DiffProcessor {
	return &DiffProcessor{dmp: diffmatchpatch.New()}
}

// LineOps returns the edit script turning previous into current, one entry per line.
func (dp *DiffProcessor) LineOps(previous, current string) []lineOp {
	// Every line gets a terminator so a missing final newline never shows up as a change.
	text1 := previous + "\n"
	text2 := current + "\n"

	runes1, runes2, lineArray := dp.dmp.DiffLinesToRunes(text1, text2)
	diffs := dp.dmp.DiffMainRunes(runes1, runes2, false)
	diffs = dp.dmp.DiffCharsToLines(diffs, lineArray)

	ops := make([]lineOp, 0, len(diffs))
	for _, d := range diffs {
		kind := opEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = opDelete
		case diffmatchpatch.DiffInsert:
			kind = opInsert
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			ops = append(ops, lineOp{kind: kind, text: strings.TrimSuffix(line, "\n")})
		}
	}
	return ops
}
