package ui

import (
	"strings"
	"unicode/utf8"
)

// Glyphs for the case tree of the plain summary and the boxed case blocks
// of the artifact logs
const (
	TreeBranch     = "├── "
	TreeLastBranch = "└── "
	TreeContinue   = "│   " // ancestor has more siblings
	TreeIndent     = "    " // ancestor was last

	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxVertical    = "│"
	BoxHorizontal  = "─"
	BoxTeeRight    = "├"
	BoxTeeLeft     = "┤"
)

// BuildTreePrefix returns the indentation of a tree entry at depth. isLast
// tells whether the entry closes its siblings, parentIsLast the same for
// each ancestor from the root down.
func BuildTreePrefix(depth int, isLast bool, parentIsLast []bool) string {
	if depth <= 0 {
		return ""
	}
	var b strings.Builder
	for level := range depth - 1 {
		closed := level < len(parentIsLast) && parentIsLast[level]
		b.WriteString(pick(closed, TreeIndent, TreeContinue))
	}
	b.WriteString(pick(isLast, TreeLastBranch, TreeBranch))
	return b.String()
}

// BuildBoxHeader opens a box of the given outer width with title on its first
// row. The box widens to fit the title.
func BuildBoxHeader(title string, width int) string {
	width = max(width, utf8.RuneCountInString(title)+4)
	return rule(BoxTopLeft, BoxTopRight, width) +
		BuildBoxLine(title, width) +
		rule(BoxTeeRight, BoxTeeLeft, width)
}

func BuildBoxFooter(width int) string {
	return rule(BoxBottomLeft, BoxBottomRight, width)
}

// BuildBoxLine renders one row of a box. Content wider than the box is cut
// and ends in "...".
func BuildBoxLine(content string, width int) string {
	inner := width - 4
	if utf8.RuneCountInString(content) > inner {
		content = string([]rune(content)[:inner-3]) + "..."
	}
	gap := inner - utf8.RuneCountInString(content)
	return BoxVertical + " " + content + repeatString(" ", gap) + " " + BoxVertical + "\n"
}

func rule(left, right string, width int) string {
	return left + repeatString(BoxHorizontal, width-2) + right + "\n"
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
