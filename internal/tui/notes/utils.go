package notes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func padFrame(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}

	if width > 0 {
		for i, line := range lines {
			pad := width - lipgloss.Width(line)
			if pad > 0 {
				lines[i] = line + strings.Repeat(" ", pad)
			}
		}
	}

	if height > len(lines) {
		blank := ""
		if width > 0 {
			blank = strings.Repeat(" ", width)
		}
		for len(lines) < height {
			lines = append(lines, blank)
		}
	}

	return strings.Join(lines, "\n")
}

// clipLines keeps at most n lines of s.
func clipLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
