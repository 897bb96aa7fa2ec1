package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ritzau/map-api/pkg/graph"
	"github.com/ritzau/map-api/pkg/query"
)

// RouteReport is the result of a one-shot route query
type RouteReport struct {
	GraphFile string
	Summary   graph.Summary
	From      string
	To        string
	Route     query.Route
	Err       error // Query failure, if any
}

// PrintRouteReport prints a nicely formatted route report with colors
func PrintRouteReport(w io.Writer, report RouteReport) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Map API - Shortest Route")
	bold.Fprintln(w, "========================")
	fmt.Fprintf(w, "Graph: %s\n", report.GraphFile)
	fmt.Fprintf(w, "Nodes: %d, edges: %d", report.Summary.Nodes, report.Summary.Edges)
	if report.Summary.Components > 1 {
		yellow.Fprintf(w, ", components: %d", report.Summary.Components)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	cyan.Fprintf(w, "From: %s\n", report.From)
	cyan.Fprintf(w, "To:   %s\n", report.To)
	fmt.Fprintln(w)

	if report.Err != nil {
		kind := query.KindOf(report.Err)
		if kind == "" {
			kind = "Error"
		}
		red.Fprintf(w, "%s: %v\n", kind, report.Err)
		return
	}

	fmt.Fprintf(w, "Route: %s\n", strings.Join(report.Route.Nodes, " -> "))
	fmt.Fprintf(w, "Path: %s\n", report.Route.String())
	green.Fprintf(w, "✓ Distance: %d (%d hop(s))\n", report.Route.Distance, len(report.Route.Nodes)-1)
}
