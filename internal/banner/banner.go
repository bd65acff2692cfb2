package banner

import (
	"github.com/charmbracelet/lipgloss"

	"irisload/internal/tui/styles"
)

const ascii = `
  _      _     _                 _ 
 (_)_ __(_)___| | ___   __ _  __| |
 | | '__| / __| |/ _ \ / _' |/ _' |
 | | |  | \__ \ | (_) | (_| | (_| |
 |_|_|  |_|___/_|\___/ \__,_|\__,_|`

func GetString() string {
	style := lipgloss.DefaultRenderer().NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n" +
		styles.Subtle.Render("  load generator for the IRIS prediction API") + "\n"
}
