package disasm

import "github.com/charmbracelet/lipgloss"

// Color palette and styles for the disassembly listing, kept deliberately
// small: a header rule, an index/offset gutter, the instruction mnemonic,
// and the trailing resolved-reference comment.
var (
	headerColor  = lipgloss.Color("#4682B4")
	indexColor   = lipgloss.Color("#888888")
	mnemonicColor = lipgloss.Color("#CCCCCC")
	commentColor = lipgloss.Color("#66BB66")

	headerStyle   = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	indexStyle    = lipgloss.NewStyle().Foreground(indexColor)
	mnemonicStyle = lipgloss.NewStyle().Foreground(mnemonicColor).Bold(true)
	commentStyle  = lipgloss.NewStyle().Foreground(commentColor)
)
