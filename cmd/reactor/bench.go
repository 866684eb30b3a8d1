package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/scheduler"
	"github.com/vango-dev/reactor/pkg/vdom"
)

func benchCmd(load loader) *cobra.Command {
	var (
		iters  int
		widths []int
		depths []int
		fanout []int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure propagation and re-render latency",
		Long: `Run two micro benchmarks and print latency tables.

propagate: one cell feeding width chains of depth computed values, each
chain observed by a watcher. One write and one flush per iteration.

render: a parent with N children that all render the same shared store
key. One store write and one flush per iteration.

Examples:
  reactor bench
  reactor bench --iters 500 --width 1,100 --depth 1,100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			benchPropagate(iters, widths, depths)
			benchRender(cfg.MaxUpdateCount, iters, fanout)
			return nil
		},
	}

	cmd.Flags().IntVarP(&iters, "iters", "n", 100, "Iterations per case")
	cmd.Flags().IntSliceVar(&widths, "width", []int{1, 10, 100}, "Chains per case")
	cmd.Flags().IntSliceVar(&depths, "depth", []int{1, 10, 100}, "Computed values per chain")
	cmd.Flags().IntSliceVar(&fanout, "children", []int{10, 100, 1000}, "Children per render case")
	return cmd
}

func newBenchTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "runs", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, runs int, calc *tachymeter.Metrics) {
	tbl.AppendRow(table.Row{
		name,
		humanize.Comma(int64(runs)),
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
}

func benchPropagate(iters int, widths, depths []int) {
	tbl := newBenchTable("Propagation")

	for _, w := range widths {
		for _, h := range depths {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			ticker := &scheduler.Microtasks{}
			sched := scheduler.New(scheduler.WithTicker(ticker), scheduler.WithLogger(quietLogger()))
			g := reactive.NewGraph(sched)

			src := reactive.NewCell(g, 1)
			runs := 0
			for i := 0; i < w; i++ {
				last := func() int { return src.Get() }
				for j := 0; j < h; j++ {
					prev := last
					m := reactive.NewComputed(g, func() int { return prev() + 1 })
					last = m.Get
				}
				read := last
				g.Watch(func() any { return read() }, func(_, _ any) error {
					runs++
					return nil
				}, reactive.Options{Name: "sink"})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Update(func(v int) int { return v + 1 })
				ticker.Drain()
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("propagate: %d * %d", w, h), runs, tach.Calc())
		}
	}
	tbl.Render()
}

func benchRender(maxUpdates, iters int, fanout []int) {
	tbl := newBenchTable("Render")

	for _, n := range fanout {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		cfg := component.DefaultConfig()
		cfg.MaxUpdateCount = maxUpdates
		cfg.DevMode = false
		rt := component.New(
			component.WithConfig(cfg),
			component.WithLogger(quietLogger()),
			component.WithReporter(report.Discard),
		)

		cell := &component.Options{
			Name:  "Cell",
			Store: map[string]func() any{"tick": func() any { return 0 }},
			Render: func(inst *component.Instance) (any, error) {
				return vdom.H("td", vdom.Textf("%v", inst.Get("tick"))), nil
			},
		}
		grid := &component.Options{
			Name: "Grid",
			Render: func(*component.Instance) (any, error) {
				row := vdom.H("tr")
				for i := 0; i < n; i++ {
					row.Children = append(row.Children, component.Child(cell, vdom.Key(fmt.Sprint(i))))
				}
				return row, nil
			},
		}
		if _, err := rt.Mount(grid, nil); err != nil {
			warn("mount failed: %v", err)
			continue
		}
		tick, _ := rt.Store().Lookup("tick")

		for i := 0; i < iters; i++ {
			start := time.Now()
			tick.Set(i + 1)
			rt.Flush()
			tach.AddTime(time.Since(start))
		}
		created, _ := rt.Renderer().Stats()
		appendCalc(tbl, fmt.Sprintf("render: %s children (%s nodes)", humanize.Comma(int64(n)), humanize.Comma(int64(created))), iters*n, tach.Calc())
	}
	tbl.Render()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
