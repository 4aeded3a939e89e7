package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vango-dev/meridian/pkg/router"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorBlue  = lipgloss.Color("75")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorGreen)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleEndpoint = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(colorGray).Padding(0, 1)
	styleCell     = lipgloss.NewStyle().Padding(0, 1)
)

const iconSuccess = "✓"

// routeTable renders routes in match order.
func routeTable(routes []*router.Route) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleDim).
		Headers("#", "ROUTE", "KIND", "COMPONENT", "PARAMS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 2 && row < len(routes) && routes[row].Kind == router.KindEndpoint {
				return styleEndpoint.Padding(0, 1)
			}
			return styleCell
		})

	for i, r := range routes {
		t.Row(
			strconv.Itoa(i+1),
			r.String(),
			string(r.Kind),
			r.Component,
			strings.Join(r.ParamNames, ", "),
		)
	}
	return t.Render()
}
