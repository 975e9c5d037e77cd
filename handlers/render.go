// microboard/handlers/render.go
package handlers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"microboard/models"
)

// RenderMessage escapes a raw message and formats it for display: quote
// lines are highlighted and newlines become breaks. When the escaped text
// exceeds truncateLen runes the preview is clipped and truncated is set; the
// full text stays in the raw message column.
func RenderMessage(message string, truncateLen int) (rendered string, truncated bool) {
	text := strings.ReplaceAll(message, "\r\n", "\n")
	if truncateLen > 0 {
		runes := []rune(text)
		if len(runes) > truncateLen {
			text = string(runes[:truncateLen])
			truncated = true
		}
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		escaped := html.EscapeString(line)
		if strings.HasPrefix(line, ">") && !strings.HasPrefix(line, ">>") {
			escaped = `<span class="quote">` + escaped + `</span>`
		}
		out = append(out, escaped)
	}
	return strings.Join(out, "<br>"), truncated
}

// RenderNameblock assembles the pre-rendered poster identity line: name,
// tripcode, optional staff capcode and the post time.
func RenderNameblock(name, tripcode, email string, role int, ts time.Time) string {
	var b strings.Builder

	displayName := html.EscapeString(name)
	if email != "" {
		fmt.Fprintf(&b, `<a class="name" href="mailto:%s">%s</a>`, html.EscapeString(email), displayName)
	} else {
		fmt.Fprintf(&b, `<span class="name">%s</span>`, displayName)
	}
	if tripcode != "" {
		fmt.Fprintf(&b, `<span class="tripcode">%s</span>`, html.EscapeString(tripcode))
	}
	switch role {
	case models.RoleModerator:
		b.WriteString(`<span class="capcode">## Mod</span>`)
	case models.RoleAdmin, models.RoleSuperAdmin:
		b.WriteString(`<span class="capcode">## Admin</span>`)
	}
	fmt.Fprintf(&b, `<span class="time">%s</span>`, ts.UTC().Format("01/02/06(Mon)15:04:05"))

	return b.String()
}
