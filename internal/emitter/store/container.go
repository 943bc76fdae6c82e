// Package store holds emitter registrations grouped by event name and
// namespace.
package store

import (
	"errors"
	"sort"

	"github.com/google/uuid"
)

// NoNamespace is the namespace key for registrations made without a
// namespace. It can never be produced by parsing an identifier.
const NoNamespace = "*"

// ErrInvalidArgument is returned by Remove when neither an event name nor a
// namespace is given.
var ErrInvalidArgument = errors.New("only one of eventName/namespace may be omitted")

// Item is a single registration record.
type Item[C any] struct {
	// ID uniquely identifies the registration.
	ID string

	// Seq is the container-wide registration sequence number.
	Seq uint64

	// Callback is the registered handler.
	Callback C
}

// Container stores registration records keyed by event name, then
// namespace. Records within a namespace keep their insertion order and are
// never deduplicated.
//
// A Container is not safe for concurrent use. The zero value is ready to use.
type Container[C any] struct {
	items map[string]map[string][]Item[C]
	seq   uint64
	count int
}

// New creates an empty container.
func New[C any]() *Container[C] {
	return &Container[C]{
		items: make(map[string]map[string][]Item[C]),
	}
}

// Add appends a registration for the event under the namespace. An empty
// namespace stores the record under NoNamespace.
func (c *Container[C]) Add(eventName, namespace string, callback C) Item[C] {
	if c.items == nil {
		c.items = make(map[string]map[string][]Item[C])
	}
	namespace = namespaceKey(namespace)

	byNamespace, ok := c.items[eventName]
	if !ok {
		byNamespace = make(map[string][]Item[C])
		c.items[eventName] = byNamespace
	}

	c.seq++
	item := Item[C]{
		ID:       uuid.NewString(),
		Seq:      c.seq,
		Callback: callback,
	}
	byNamespace[namespace] = append(byNamespace[namespace], item)
	c.count++

	return item
}

// Items returns the records registered for the event. With an empty
// namespace it returns the records of every namespace of the event, ordered
// by registration. The returned slice is a copy.
func (c *Container[C]) Items(eventName, namespace string) []Item[C] {
	byNamespace, ok := c.items[eventName]
	if !ok {
		return nil
	}

	if namespace != "" {
		items := byNamespace[namespace]
		if len(items) == 0 {
			return nil
		}
		result := make([]Item[C], len(items))
		copy(result, items)
		return result
	}

	var all []Item[C]
	for _, items := range byNamespace {
		all = append(all, items...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Seq < all[j].Seq
	})
	return all
}

// Remove deletes registrations by event name, by namespace or by both, and
// reports how many records were removed.
//
//   - Both given: only the (eventName, namespace) bucket is removed.
//   - Empty namespace: every namespace of eventName is removed.
//   - Empty eventName: namespace is removed from every event name.
func (c *Container[C]) Remove(eventName, namespace string) (int, error) {
	switch {
	case eventName == "" && namespace == "":
		return 0, ErrInvalidArgument
	case namespace == "":
		return c.removeByEventName(eventName), nil
	case eventName == "":
		return c.removeByNamespace(namespace), nil
	}

	byNamespace, ok := c.items[eventName]
	if !ok {
		return 0, nil
	}
	return c.removeBucket(eventName, byNamespace, namespace), nil
}

func (c *Container[C]) removeByEventName(eventName string) int {
	byNamespace, ok := c.items[eventName]
	if !ok {
		return 0
	}

	removed := 0
	for _, items := range byNamespace {
		removed += len(items)
	}
	delete(c.items, eventName)
	c.count -= removed
	return removed
}

func (c *Container[C]) removeByNamespace(namespace string) int {
	removed := 0
	for eventName, byNamespace := range c.items {
		removed += c.removeBucket(eventName, byNamespace, namespace)
	}
	return removed
}

// removeBucket deletes one namespace of an event, dropping the event itself
// once it has no namespaces left.
func (c *Container[C]) removeBucket(eventName string, byNamespace map[string][]Item[C], namespace string) int {
	items, ok := byNamespace[namespace]
	if !ok {
		return 0
	}

	delete(byNamespace, namespace)
	if len(byNamespace) == 0 {
		delete(c.items, eventName)
	}
	c.count -= len(items)
	return len(items)
}

// Len returns the total number of records.
func (c *Container[C]) Len() int {
	return c.count
}

// Has returns true if at least one record exists for the event under the
// namespace. An empty namespace matches any namespace.
func (c *Container[C]) Has(eventName, namespace string) bool {
	byNamespace, ok := c.items[eventName]
	if !ok {
		return false
	}
	if namespace == "" {
		return len(byNamespace) > 0
	}
	return len(byNamespace[namespace]) > 0
}

// Events returns the registered event names in sorted order.
func (c *Container[C]) Events() []string {
	events := make([]string, 0, len(c.items))
	for eventName := range c.items {
		events = append(events, eventName)
	}
	sort.Strings(events)
	return events
}

// Namespaces returns the namespaces registered for the event in sorted
// order. NoNamespace is not reported.
func (c *Container[C]) Namespaces(eventName string) []string {
	byNamespace := c.items[eventName]
	namespaces := make([]string, 0, len(byNamespace))
	for namespace := range byNamespace {
		if namespace != NoNamespace {
			namespaces = append(namespaces, namespace)
		}
	}
	sort.Strings(namespaces)
	return namespaces
}

func namespaceKey(namespace string) string {
	if namespace == "" {
		return NoNamespace
	}
	return namespace
}
