package knowledge

import (
	"fmt"
	"strings"
)

// FormatMarkdown renders a note for human reading.
func FormatMarkdown(n *SummaryNote) string {
	tags := make([]string, 0, len(n.Keywords)+len(n.Actions))
	for _, k := range n.Keywords {
		if k = strings.TrimSpace(strings.ReplaceAll(k, "#", "")); k != "" {
			tags = append(tags, "#"+k)
		}
	}
	for _, a := range n.Actions {
		if a = strings.TrimSpace(strings.ReplaceAll(a, "@", "")); a != "" {
			tags = append(tags, "@"+a)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", n.Title)
	fmt.Fprintf(&b, "**Disciplines:** %s\n", strings.Join(n.Disciplines, ", "))
	fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(tags, " "))
	fmt.Fprintf(&b, "\n## Essence\n%s\n", n.Essence)
	fmt.Fprintf(&b, "\n## Core Idea\n%s\n", n.CoreIdea)
	if n.ActionItems != "" {
		fmt.Fprintf(&b, "\n## Action Idea\n%s\n", n.ActionItems)
	}
	if n.SourceReference != "" {
		fmt.Fprintf(&b, "\n## Reference\n[%s](%s)\n", n.SourceReference, n.SourceReference)
	}
	return b.String()
}
