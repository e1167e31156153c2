package differ

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	ops                []lineOp
}

// buildHunks groups changes with up to context unchanged lines on either side.
// Changes separated by at most 2*context equal lines share a hunk.
func buildHunks(ops []lineOp, context int) []hunk {
	var changes []int
	for i, op := range ops {
		if op.kind != opEqual {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	// line numbers (0-based) in old/new before ops[i]
	oldPos := make([]int, len(ops)+1)
	newPos := make([]int, len(ops)+1)
	for i, op := range ops {
		oldPos[i+1], newPos[i+1] = oldPos[i], newPos[i]
		if op.kind != opInsert {
			oldPos[i+1]++
		}
		if op.kind != opDelete {
			newPos[i+1]++
		}
	}

	var hunks []hunk
	start := max(0, changes[0]-context)
	end := changes[0]
	for _, c := range changes[1:] {
		if c-end-1 > 2*context {
			hunks = append(hunks, newHunk(ops, oldPos, newPos, start, min(len(ops), end+context+1)))
			start = c - context
		}
		end = c
	}
	hunks = append(hunks, newHunk(ops, oldPos, newPos, start, min(len(ops), end+context+1)))
	return hunks
}

func newHunk(ops []lineOp, oldPos, newPos []int, from, to int) hunk {
	h := hunk{
		oldStart: oldPos[from],
		oldCount: oldPos[to] - oldPos[from],
		newStart: newPos[from],
		newCount: newPos[to] - newPos[from],
		ops:      ops[from:to],
	}
	// Unified headers are 1-based; an empty range names the line before it.
	if h.oldCount > 0 {
		h.oldStart++
	}
	if h.newCount > 0 {
		h.newStart++
	}
	return h
}

// renderUnified renders ops as unified diff hunks and counts added and removed lines.
func renderUnified(ops []lineOp, context int) (diff string, added, removed int) {
	var sb strings.Builder
	for _, h := range buildHunks(ops, context) {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)
		for _, op := range h.ops {
			sb.WriteByte(byte(op.kind))
			sb.WriteString(op.text)
			sb.WriteByte('\n')
			switch op.kind {
			case opInsert:
				added++
			case opDelete:
				removed++
			}
		}
	}
	return sb.String(), added, removed
}

// truncateDiff cuts a rendered diff to at most maxChars characters, preferring whole lines.
func truncateDiff(diff string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(diff) <= maxChars {
		return diff, false
	}

	cut, chars := 0, 0
	for cut < len(diff) && chars < maxChars {
		_, size := utf8.DecodeRuneInString(diff[cut:])
		cut += size
		chars++
	}
	if nl := strings.LastIndexByte(diff[:cut], '\n'); nl >= 0 {
		cut = nl + 1
	}
	return diff[:cut], true
}
