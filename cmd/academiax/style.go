package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// check prints one doctor line: a label and a pass, fail or note marker.
func check(label string, err error, detail string) bool {
	if err != nil {
		fmt.Printf("%-14s %s %v\n", label, failStyle.Render("✗"), err)
		return false
	}
	fmt.Printf("%-14s %s %s\n", label, passStyle.Render("✓"), detail)
	return true
}

func note(label, detail string) {
	fmt.Printf("%-14s %s\n", label, noteStyle.Render("- "+detail))
}
