package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registrar is the OS hotkey surface. Register and Unregister must be safe to
// call after Start; dispatch is invoked with the id of the triggered hotkey.
type Registrar interface {
	Start(dispatch func(id int32)) error
	Register(id int32, b Binding) error
	Unregister(id int32) error
	Stop() error
}

// Result reports the outcome of one binding registration. A failed binding
// never blocks the rest of the table.
type Result struct {
	Action Action
	Spec   string
	Err    error
}

// Router owns the application's hotkey table: it registers the table for the
// active layout, routes triggers to the action handler, and re-registers the
// whole table when the layout changes.
type Router struct {
	mu        sync.Mutex
	registrar Registrar
	handler   func(Action)
	layout    Layout
	byID      map[int32]Action
	byAction  map[Action]int32
	nextID    int32
	started   bool
}

// NewRouter creates a router dispatching to handler. handler runs on its own
// goroutine per trigger and may block.
func NewRouter(registrar Registrar, handler func(Action)) *Router {
	return &Router{
		registrar: registrar,
		handler:   handler,
		byID:      make(map[int32]Action),
		byAction:  make(map[Action]int32),
		nextID:    0x4000,
	}
}

// Start brings up the registrar. Must be called once before RegisterAll.
func (r *Router) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if r.handler == nil {
		return errors.New("hotkey handler is required")
	}
	if err := r.registrar.Start(r.dispatch); err != nil {
		return err
	}
	r.started = true
	return nil
}

// RegisterAll registers the full table for layout, resolving LayoutAuto via
// OS detection. Each binding is attempted independently; the returned results
// are ordered by action name and include per-binding failures such as
// conflicts with hotkeys held by other applications.
func (r *Router) RegisterAll(layout Layout) []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if layout == LayoutAuto || layout == "" {
		layout = DetectLayout()
	}
	r.layout = layout

	table := Bindings(layout)
	results := make([]Result, 0, len(table))
	actions := make([]Action, 0, len(table))
	for action := range table {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	for _, action := range actions {
		spec := table[action]
		results = append(results, r.registerOne(action, spec))
	}
	return results
}

func (r *Router) registerOne(action Action, spec string) Result {
	result := Result{Action: action, Spec: spec}

	binding, err := ParseBinding(spec)
	if err != nil {
		result.Err = err
		return result
	}
	if _, exists := r.byAction[action]; exists {
		result.Err = fmt.Errorf("action %s already bound", action)
		return result
	}

	id := r.nextID
	r.nextID++
	if err := r.registrar.Register(id, binding); err != nil {
		result.Err = fmt.Errorf("register %s: %w", binding.Normalized(), err)
		slog.Warn("[hotkey] binding unavailable", "action", action, "spec", binding.Normalized(), "error", err)
		return result
	}

	r.byID[id] = action
	r.byAction[action] = id
	return result
}

// Rebind switches to a new layout: the entire active table is unregistered
// first, then the new layout's table is registered. Changed and unchanged
// bindings are treated alike; a full cycle keeps the bookkeeping trivial and
// layout switches are rare.
func (r *Router) Rebind(layout Layout) []Result {
	r.mu.Lock()
	r.unregisterAllLocked()
	r.mu.Unlock()
	return r.RegisterAll(layout)
}

// ActiveLayout returns the resolved layout of the last RegisterAll.
func (r *Router) ActiveLayout() Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layout
}

// BoundSpec returns the registered spec for an action, if any.
func (r *Router) BoundSpec(action Action) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAction[action]; !ok {
		return "", false
	}
	table := Bindings(r.layout)
	spec, ok := table[action]
	return spec, ok
}

// Stop unregisters everything and shuts the registrar down.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil
	}
	r.unregisterAllLocked()
	r.started = false
	return r.registrar.Stop()
}

func (r *Router) unregisterAllLocked() {
	for id, action := range r.byID {
		if err := r.registrar.Unregister(id); err != nil {
			slog.Warn("[hotkey] unregister failed", "action", action, "error", err)
		}
	}
	clear(r.byID)
	clear(r.byAction)
}

// dispatch runs on the registrar's delivery path; the handler gets its own
// goroutine so a slow action cannot stall hotkey delivery.
func (r *Router) dispatch(id int32) {
	r.mu.Lock()
	action, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return
	}
	go r.handler(action)
}
