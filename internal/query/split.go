package query

import "strings"

// SplitScript cuts a script into statements at top-level semicolons.
// It tracks quoting and comments so literal semicolons survive, but it
// never validates the SQL itself; the server stays the sole arbiter of
// correctness. Empty statements are dropped.
func SplitScript(script string) []string {
	var (
		stmts   []string
		current strings.Builder
	)

	const (
		stateNone = iota
		stateSingleQuote
		stateDoubleQuote
		stateBacktick
		stateLineComment
		stateBlockComment
	)

	state := stateNone
	runes := []rune(script)

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch state {
		case stateSingleQuote, stateDoubleQuote:
			current.WriteRune(c)
			quote := byte('\'')
			if state == stateDoubleQuote {
				quote = '"'
			}
			if c == '\\' && i+1 < len(runes) {
				// backslash escape consumes the next rune
				i++
				current.WriteRune(runes[i])
			} else if c == rune(quote) {
				state = stateNone
			}

		case stateBacktick:
			current.WriteRune(c)
			if c == '`' {
				state = stateNone
			}

		case stateLineComment:
			current.WriteRune(c)
			if c == '\n' {
				state = stateNone
			}

		case stateBlockComment:
			current.WriteRune(c)
			if c == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				i++
				current.WriteRune(runes[i])
				state = stateNone
			}

		default:
			switch {
			case c == ';':
				appendStatement(&stmts, &current)
				continue
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == '`':
				state = stateBacktick
			case c == '#':
				state = stateLineComment
			case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
				state = stateLineComment
			case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
				state = stateBlockComment
			}
			current.WriteRune(c)
		}
	}

	appendStatement(&stmts, &current)
	return stmts
}

func appendStatement(stmts *[]string, current *strings.Builder) {
	stmt := strings.TrimSpace(current.String())
	current.Reset()
	if stmt != "" {
		*stmts = append(*stmts, stmt)
	}
}
