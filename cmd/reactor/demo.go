package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/report"
)

type demoStep struct {
	name string
	run  func(root *component.Instance)
}

var demoSteps = []demoStep{
	{"toggle \"write docs\"", func(root *component.Instance) {
		if item, ok := findItem(root, "write docs"); ok {
			item.Emit("toggle")
		}
	}},
	{"hide stats", func(root *component.Instance) { root.Set("showStats", false) }},
	{"add \"ship it\"", func(root *component.Instance) { addTodo(root, "ship it") }},
	{"show stats", func(root *component.Instance) { root.Set("showStats", true) }},
}

func demoCmd(load loader) *cobra.Command {
	var markup bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Mount a sample tree and print it after each change",
		Long: `Mount a small todo application, apply a scripted series of
changes and print the instance tree after each flush.

Examples:
  reactor demo
  reactor demo --markup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := cfg.Logger(os.Stderr)
			rec := report.NewRecorder()
			rt := component.New(
				component.WithConfig(cfg.Runtime()),
				component.WithLogger(logger),
				component.WithReporter(report.Multi(report.NewSlogReporter(logger), rec)),
			)

			printBanner()
			root, err := rt.Mount(demoApp(logger), nil)
			if err != nil {
				return err
			}
			rt.Flush()
			printTree(rt, "mount", markup)

			for _, step := range demoSteps {
				step.run(root)
				rt.Flush()
				printTree(rt, step.name, markup)
			}

			fmt.Println()
			for _, line := range reportLines(rec) {
				warn("%s", line)
			}
			success("%d flushes, %d live instances, %d reports", rt.Scheduler().Flushes(), rt.Len(), rec.Len())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&markup, "markup", "m", false, "Include each instance's markup")
	return cmd
}

// printTree renders the runtime's instance forest as a table.
func printTree(rt *component.Runtime, title string, markup bool) {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	header := table.Row{"id", "instance", "state", "renders", "deps"}
	if markup {
		header = append(header, "markup")
	}
	tbl.AppendHeader(header)

	var walk func(s component.Snapshot, depth int)
	walk = func(s component.Snapshot, depth int) {
		state := "mounted"
		switch {
		case s.Inactive:
			state = "inactive"
		case !s.Mounted:
			state = "created"
		}
		row := table.Row{s.ID, strings.Repeat("  ", depth) + s.Name, state, s.RenderRuns, s.RenderDeps}
		if markup {
			row = append(row, s.Markup)
		}
		tbl.AppendRow(row)
		for _, c := range s.Children {
			walk(c, depth+1)
		}
	}
	for _, s := range rt.Snapshot() {
		walk(s, 0)
	}
	tbl.Render()
}

// reportLines renders each recorded report on one line.
func reportLines(rec *report.Recorder) []string {
	lines := make([]string, 0, rec.Len())
	for _, e := range rec.Reports() {
		lines = append(lines, e.Describe().FormatCompact())
	}
	return lines
}
