package banner

import (
	"mcpblast/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
                           __    __           __
   ____ ___  _________    / /_  / /___ ______/ /_
  / __ '__ \/ ___/ __ \  / __ \/ / __ '/ ___/ __/
 / / / / / / /__/ /_/ / / /_/ / / /_/ (__  ) /_
/_/ /_/ /_/\___/ .___/ /_.___/_/\__,_/____/\__/
              /_/                                `

	return "\n" + style.Render(ascii) + "\n"
}
