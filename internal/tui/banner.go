package tui

import (
	"strings"

	"github.com/common-nighthawk/go-figure"
)

// banner renders the ASCII art title shown above the menu.
func banner() string {
	art := figure.NewFigure("gitswitch", "standard", true).String()
	return bannerStyle.Render(strings.TrimRight(art, "\n "))
}
