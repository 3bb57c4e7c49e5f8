package views

import (
	"fmt"
	"strings"

	"mediatagger/internal/tui/common"
	"mediatagger/internal/tui/styles"
	"mediatagger/pkg/types"

	"github.com/charmbracelet/lipgloss"
)

// Listing and pane are stacked below this terminal width
const sideBySideWidth = 100

// RenderMainView lays out the title, listing, viewer pane, status line and
// help.
func RenderMainView(m common.ModelReader, list string) string {
	var sb strings.Builder

	sb.WriteString(renderTitle(m))
	sb.WriteString("\n\n")

	if m.Width() >= sideBySideWidth {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.PaneView()))
	} else {
		sb.WriteString(list + "\n" + m.PaneView())
	}
	sb.WriteString("\n")

	if status := m.StatusView(); status != "" {
		sb.WriteString("\n" + status)
	}
	if m.Mode() == types.Confirm {
		sb.WriteString("\n" + styles.Theme.Help.Render("[y] confirm  [n] cancel"))
	}
	sb.WriteString("\n" + m.HelpView())

	return styles.Theme.App.Render(sb.String())
}

func renderTitle(m common.ModelReader) string {
	checked := 0
	for _, e := range m.Entries() {
		if e.Checked {
			checked++
		}
	}
	title := styles.Theme.Title.Render("mediatagger")
	info := styles.Theme.Help.Render(" " + m.Mode().String() + "  " + countLabel(checked, len(m.Entries())))
	return title + info
}

func countLabel(checked, total int) string {
	return fmt.Sprintf("%d/%d best", checked, total)
}
