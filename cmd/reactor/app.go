package main

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/events"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// todo is one entry of the demo list.
type todo struct {
	Title string
	Done  bool
}

var seedTodos = []todo{
	{Title: "write docs"},
	{Title: "cut release"},
	{Title: "fix flaky test", Done: true},
}

// demoApp builds the component tree used by the demo and devtools commands:
// a themed title, a keyed todo list backed by the shared store and a
// keep-alive stats panel.
func demoApp(logger *slog.Logger) *component.Options {
	title := &component.Options{
		Name:   "Title",
		Props:  map[string]component.Prop{"text": {Default: "Todos"}},
		Inject: map[string]component.Injection{"theme": {Default: "light"}},
		Render: func(inst *component.Instance) (any, error) {
			return vdom.H("h1", vdom.Class(fmt.Sprint(inst.Get("theme"))), fmt.Sprint(inst.Get("text"))), nil
		},
	}

	item := &component.Options{
		Name: "Item",
		Props: map[string]component.Prop{
			"title": {},
			"done":  {Default: false},
		},
		Render: func(inst *component.Instance) (any, error) {
			class := "open"
			if done, _ := inst.Get("done").(bool); done {
				class = "done"
			}
			return vdom.H("li", vdom.Class(class), fmt.Sprint(inst.Get("title"))), nil
		},
	}

	stats := &component.Options{
		Name:  "Stats",
		Store: map[string]func() any{"todos": initialTodos},
		Computed: map[string]func(inst *component.Instance) any{
			"done": func(inst *component.Instance) any {
				n := 0
				for _, t := range todosOf(inst) {
					if t.Done {
						n++
					}
				}
				return n
			},
		},
		Render: func(inst *component.Instance) (any, error) {
			return vdom.H("p", vdom.Textf("%v of %d done", inst.Get("done"), len(todosOf(inst)))), nil
		},
	}

	return &component.Options{
		Name: "App",
		Data: func(*component.Instance) map[string]any {
			return map[string]any{"showStats": true}
		},
		Store:   map[string]func() any{"todos": initialTodos},
		Provide: func(*component.Instance) map[string]any { return map[string]any{"theme": "dark"} },
		Computed: map[string]func(inst *component.Instance) any{
			"remaining": func(inst *component.Instance) any {
				n := 0
				for _, t := range todosOf(inst) {
					if !t.Done {
						n++
					}
				}
				return n
			},
		},
		Watch: []component.Watcher{{
			Name:   "remaining",
			Getter: func(inst *component.Instance) any { return inst.Get("remaining") },
			Handler: func(inst *component.Instance, newValue, oldValue any) error {
				logger.Info("remaining changed", "from", oldValue, "to", newValue)
				return nil
			},
		}},
		Render: func(inst *component.Instance) (any, error) {
			list := vdom.H("ul")
			for _, t := range todosOf(inst) {
				toggle := events.Func(func(...any) { toggleTodo(inst, t.Title) })
				list.Children = append(list.Children, component.Child(item,
					vdom.Key(t.Title),
					vdom.Prop("title", t.Title),
					vdom.Prop("done", t.Done),
					vdom.On("toggle", toggle),
				))
			}
			var panel *vdom.VNode
			if show, _ := inst.Get("showStats").(bool); show {
				panel = vdom.KeepAlive(component.Child(stats))
			}
			return vdom.H("main",
				component.Child(title, vdom.Prop("text", fmt.Sprintf("Todos (%v left)", inst.Get("remaining")))),
				list,
				panel,
			), nil
		},
	}
}

func initialTodos() any {
	return slices.Clone(seedTodos)
}

func todosOf(inst *component.Instance) []todo {
	ts, _ := inst.Get("todos").([]todo)
	return ts
}

func toggleTodo(inst *component.Instance, title string) {
	inst.Update("todos", func(v any) any {
		ts := slices.Clone(v.([]todo))
		for i := range ts {
			if ts[i].Title == title {
				ts[i].Done = !ts[i].Done
			}
		}
		return ts
	})
}

func addTodo(inst *component.Instance, title string) {
	inst.Update("todos", func(v any) any {
		return append(slices.Clone(v.([]todo)), todo{Title: title})
	})
}

// findItem returns the Item child rendering title.
func findItem(root *component.Instance, title string) (*component.Instance, bool) {
	for _, c := range root.Children() {
		if c.Name() == "Item" && c.Get("title") == title {
			return c, true
		}
	}
	return nil, false
}
