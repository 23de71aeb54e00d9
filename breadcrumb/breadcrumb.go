// Package breadcrumb provides the naming-context stack tracked during test
// execution. The mocking layer pushes a name when entering a scoped region and
// pops it on the way out; expectation matching uses the stack to qualify names
// by their enclosing scope.
package breadcrumb

// Visitor is invoked by Walk once per entry on the stack.
type Visitor func(name string, memo interface{})

// Breadcrumb is a LIFO stack of name labels. An instance is scoped to one
// execution context and is not safe for concurrent use.
type Breadcrumb struct {
	names []string
}

// New creates an empty breadcrumb.
func New() *Breadcrumb {
	return &Breadcrumb{}
}

// Push makes name the new top of the stack.
func (b *Breadcrumb) Push(name string) {
	b.names = append(b.names, name)
}

// Pop removes the current top. Popping an empty breadcrumb is a no-op.
func (b *Breadcrumb) Pop() {
	if len(b.names) == 0 {
		return
	}
	b.names = b.names[:len(b.names)-1]
}

// Current returns the most recently pushed name, or "" when the stack is
// empty.
func (b *Breadcrumb) Current() string {
	if len(b.names) == 0 {
		return ""
	}
	return b.names[len(b.names)-1]
}

// Depth returns the number of names on the stack.
func (b *Breadcrumb) Depth() int {
	return len(b.names)
}

// Walk invokes visitor for every entry on the stack, oldest-pushed-first, so
// scope paths read from the outermost name to the innermost. On an empty
// breadcrumb the visitor is never invoked.
func (b *Breadcrumb) Walk(visitor Visitor, memo interface{}) {
	for _, name := range b.names {
		visitor(name, memo)
	}
}
