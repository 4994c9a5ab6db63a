// Package dom models the small part of a browser document that the page
// controllers touch: elements addressed by id, their value, inner HTML and
// hidden state, plus listener registration and event dispatch.
package dom

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
)

// ErrNoElement is returned when dispatching to an id that is not on the page.
var ErrNoElement = errors.New("dom: no such element")

// Op names a recorded mutation.
type Op string

const (
	OpSetValue Op = "set-value"
	OpSetHTML  Op = "set-html"
	OpShow     Op = "show"
	OpHide     Op = "hide"
)

// Mutation is one journal entry.
type Mutation struct {
	Op     Op
	Target string
}

// Element is a snapshot of one element.
type Element struct {
	ID     string
	Value  string
	HTML   template.HTML
	Hidden bool
}

// Event is passed to listeners.
type Event struct {
	Type   string
	Target string

	defaultPrevented bool
}

// PreventDefault marks the event's default action as cancelled.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Listener handles a dispatched event.
type Listener func(ctx context.Context, ev *Event) error

type listenerKey struct {
	target    string
	eventType string
}

type registration struct {
	fn Listener
}

// Document is safe for concurrent use. Listeners run outside the lock so they
// may mutate the document.
type Document struct {
	mu        sync.Mutex
	elements  map[string]*Element
	listeners map[listenerKey][]*registration
	journal   []Mutation
}

// New returns a document holding the given elements.
func New(elements ...Element) *Document {
	d := &Document{
		elements:  make(map[string]*Element, len(elements)),
		listeners: make(map[listenerKey][]*registration),
	}
	for _, el := range elements {
		el := el
		d.elements[el.ID] = &el
	}
	return d
}

// Has reports whether id is on the page.
func (d *Document) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.elements[id]
	return ok
}

// Element returns a snapshot of id.
func (d *Document) Element(id string) (Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// Value returns the element's value, or "" when absent.
func (d *Document) Value(id string) string {
	el, _ := d.Element(id)
	return el.Value
}

// HTML returns the element's inner HTML, or "" when absent.
func (d *Document) HTML(id string) template.HTML {
	el, _ := d.Element(id)
	return el.HTML
}

// Hidden reports whether the element is hidden. Absent elements count as hidden.
func (d *Document) Hidden(id string) bool {
	el, ok := d.Element(id)
	return !ok || el.Hidden
}

// SetValue sets the element's value.
func (d *Document) SetValue(id, value string) {
	d.mutate(OpSetValue, id, func(el *Element) { el.Value = value })
}

// SetHTML replaces the element's inner HTML.
func (d *Document) SetHTML(id string, html template.HTML) {
	d.mutate(OpSetHTML, id, func(el *Element) { el.HTML = html })
}

// Show clears the hidden state.
func (d *Document) Show(id string) {
	d.mutate(OpShow, id, func(el *Element) { el.Hidden = false })
}

// Hide sets the hidden state.
func (d *Document) Hide(id string) {
	d.mutate(OpHide, id, func(el *Element) { el.Hidden = true })
}

// mutate applies fn to id and journals it. Mutations of absent elements are dropped.
func (d *Document) mutate(op Op, id string, fn func(el *Element)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[id]
	if !ok {
		return
	}
	fn(el)
	d.journal = append(d.journal, Mutation{Op: op, Target: id})
}

// On registers fn for eventType on id and returns a func that removes it.
func (d *Document) On(id, eventType string, fn Listener) (off func()) {
	key := listenerKey{target: id, eventType: eventType}
	reg := &registration{fn: fn}

	d.mu.Lock()
	d.listeners[key] = append(d.listeners[key], reg)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			regs := d.listeners[key]
			for i, r := range regs {
				if r == reg {
					d.listeners[key] = append(regs[:i:i], regs[i+1:]...)
					break
				}
			}
			if len(d.listeners[key]) == 0 {
				delete(d.listeners, key)
			}
		})
	}
}

// ListenerCount reports how many listeners are registered for eventType on id.
func (d *Document) ListenerCount(id, eventType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[listenerKey{target: id, eventType: eventType}])
}

// Dispatch runs every listener for eventType on id in registration order and
// waits for them. Listener errors are joined.
func (d *Document) Dispatch(ctx context.Context, id, eventType string) (*Event, error) {
	d.mu.Lock()
	if _, ok := d.elements[id]; !ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	regs := append([]*registration(nil), d.listeners[listenerKey{target: id, eventType: eventType}]...)
	d.mu.Unlock()

	ev := &Event{Type: eventType, Target: id}
	var errs []error
	for _, reg := range regs {
		if err := reg.fn(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return ev, errors.Join(errs...)
}

// Journal returns a copy of all recorded mutations.
func (d *Document) Journal() []Mutation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Mutation(nil), d.journal...)
}

// Count returns how many times op was applied to id.
func (d *Document) Count(op Op, id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.journal {
		if m.Op == op && m.Target == id {
			n++
		}
	}
	return n
}
