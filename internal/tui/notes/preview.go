package notes

import (
	"fmt"
	"strings"

	"github.com/Paintersrp/snyft/internal/search"
)

type previewContext struct {
	ID        string
	Outbound  []string
	Backlinks []string
}

const maxContextItems = 8

// buildPreviewContext resolves the wiki links of note id to titles. A nil
// index yields an empty context.
func buildPreviewContext(id string, idx *search.Index) previewContext {
	ctx := previewContext{ID: id}
	if idx == nil {
		return ctx
	}
	related := idx.Related(id)
	ctx.Outbound = titlesFor(idx, related.Outbound)
	ctx.Backlinks = titlesFor(idx, related.Backlinks)
	return ctx
}

func formatPreviewContext(ctx previewContext) string {
	summary := fmt.Sprintf(
		"Links: %d outbound · %d backlinks",
		len(ctx.Outbound),
		len(ctx.Backlinks),
	)

	sections := []struct {
		title string
		items []string
	}{
		{title: "Outbound", items: ctx.Outbound},
		{title: "Backlinks", items: ctx.Backlinks},
	}

	var builder strings.Builder
	builder.WriteString(summary)

	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}

		builder.WriteString("\n")
		builder.WriteString(section.title)
		builder.WriteString(":\n")

		shown, hidden := limitItems(section.items, maxContextItems)
		for _, item := range shown {
			builder.WriteString("  • ")
			builder.WriteString(item)
			builder.WriteString("\n")
		}
		if hidden > 0 {
			builder.WriteString(fmt.Sprintf("  • … and %d more\n", hidden))
		}
	}

	return strings.TrimRight(builder.String(), "\n")
}

func titlesFor(idx *search.Index, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if title, ok := idx.Title(id); ok && title != "" {
			out = append(out, title)
			continue
		}
		out = append(out, id)
	}
	return out
}

func limitItems(items []string, limit int) ([]string, int) {
	if limit <= 0 || len(items) <= limit {
		return append([]string(nil), items...), 0
	}
	shown := make([]string, limit)
	copy(shown, items[:limit])
	return shown, len(items) - limit
}
