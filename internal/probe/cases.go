package probe

import (
	"fmt"
	"strings"
)

var themes = []string{
	"asking a neighbour to turn the music down",
	"convincing a friend to see a doctor",
	"requesting a deadline extension",
}

var messages = []string{
	"I know you've had a long week, and I'd really appreciate it if we could talk.",
	"Do it now.",
	"I hear you. Would it help if I came along with you on Tuesday?",
}

// Cases returns n request bodies cycling through every payload shape the
// evaluator accepts, plus the shapes that must fall back to zero.
func Cases(n int) []Case {
	out := make([]Case, 0, n)
	for i := range n {
		theme := themes[i%len(themes)]
		msg := messages[i%len(messages)]
		var c Case
		switch i % 6 {
		case 0:
			c = Case{Name: "json", Body: fmt.Sprintf(`{"theme":%q,"input":%q}`, theme, msg)}
		case 1:
			c = Case{Name: "single_quoted", Body: fmt.Sprintf(`{'theme': '%s', 'input': '%s'}`, quoteSingle(theme), quoteSingle(msg))}
		case 2:
			c = Case{Name: "no_theme", Body: fmt.Sprintf(`{"input":%q}`, msg), WantZero: true}
		case 3:
			c = Case{Name: "blank_input", Body: fmt.Sprintf(`{"theme":%q,"input":"   "}`, theme), WantZero: true}
		case 4:
			c = Case{Name: "empty_body", Body: "", WantZero: true}
		default:
			c = Case{Name: "garbage", Body: "{theme: [unterminated", WantZero: true}
		}
		out = append(out, c)
	}
	return out
}

// quoteSingle escapes a string for a single-quoted literal.
func quoteSingle(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
