package component

import (
	"reflect"
	"strings"

	uuid "github.com/satori/go.uuid"

	"fieldbind/internal/common"
)

// Component is implemented by every pointer to a struct embedding Base.
type Component interface {
	Node() *Base
}

// HasDefaults is called during the first initialization sweep.
type HasDefaults interface {
	ApplyDefaults()
}

// HasInit is called once defaults are in place, before bindings propagate.
type HasInit interface {
	InitComponent()
}

// ChangeHandler receives the names of fields that changed since the last
// flush. It runs outside of propagation, so it may write fields freely.
type ChangeHandler interface {
	FieldsChanged(fields []string)
}

// Alias marks a field that forwards to another path. It carries no data;
// the target path comes from the struct tag, e.g. `bind:",map=Label.Text"`.
type Alias struct{}

// Base holds tree bookkeeping. Embed it by value.
type Base struct {
	self         Component
	id           string
	parent       Component
	layoutParent Component
	children     []Component
	destroyed    bool
}

// Node returns b itself so that embedding types satisfy Component.
func (b *Base) Node() *Base {
	return b
}

// Attach records the outer component for b and assigns a random identifier
// if none was set. It is idempotent.
func Attach(c Component) {
	b := c.Node()
	b.self = c

	if b.id == "" {
		u, _ := uuid.NewV4()
		b.id = u.String()
	}
}

// Self returns the component embedding b, or nil before Attach.
func (b *Base) Self() Component {
	return b.self
}

func (b *Base) ID() string {
	return b.id
}

func (b *Base) SetID(id string) {
	b.id = id
}

// Parent returns the logical parent: the scope binding expressions are
// evaluated against by default.
func (b *Base) Parent() Component {
	return b.parent
}

// LayoutParent returns the component that contains b in the tree.
func (b *Base) LayoutParent() Component {
	return b.layoutParent
}

// SetLogicalParent overrides the logical parent without moving b in the tree.
func (b *Base) SetLogicalParent(p Component) {
	b.parent = p
}

func (b *Base) Children() []Component {
	return b.children
}

func (b *Base) Destroyed() bool {
	return b.destroyed
}

// DisplayName identifies the component in diagnostics as Type#id.
func (b *Base) DisplayName() string {
	if b.self == nil {
		return common.UnknownStr + "#" + b.id
	}

	return common.TypeName(reflect.TypeOf(b.self)) + "#" + b.id
}

// AddChild attaches child under parent. Both become logical and layout
// parent of child.
func AddChild(parent, child Component) {
	Attach(parent)
	Attach(child)

	cb := child.Node()
	if cb.layoutParent != nil {
		Remove(child)
	}

	cb.layoutParent = parent
	cb.parent = parent

	pb := parent.Node()
	pb.children = append(pb.children, child)
}

// Remove detaches c from its layout parent. c keeps its own subtree.
func Remove(c Component) {
	b := c.Node()
	if b.layoutParent == nil {
		return
	}

	pb := b.layoutParent.Node()
	pb.children = common.RemoveIf(pb.children, func(x Component) bool { return x == c })

	if b.parent == b.layoutParent {
		b.parent = nil
	}

	b.layoutParent = nil
}

// Destroy detaches c and marks it and its whole subtree as destroyed.
// Observers targeting destroyed components drop themselves lazily.
func Destroy(c Component) {
	Remove(c)
	Walk(c, func(x Component) bool {
		x.Node().destroyed = true
		return true
	})
}

// Walk visits c and its descendants depth-first, parents before children.
// Returning false from visit skips the subtree below that node.
func Walk(c Component, visit func(Component) bool) {
	if !visit(c) {
		return
	}

	for _, child := range c.Node().children {
		Walk(child, visit)
	}
}

// FindDescendantByID searches the subtree below c, breadth first, for a
// component whose identifier is id. c itself is not considered.
func FindDescendantByID(c Component, id string) Component {
	queue := append([]Component(nil), c.Node().children...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		if next.Node().id == id {
			return next
		}

		queue = append(queue, next.Node().children...)
	}

	return nil
}

// Ancestors returns the layout ancestors of c, nearest first.
func Ancestors(c Component) []Component {
	var out []Component
	for p := c.Node().layoutParent; p != nil; p = p.Node().layoutParent {
		out = append(out, p)
	}

	return out
}

// Path returns the display names from the root down to c, joined by '/'.
func Path(c Component) string {
	names := []string{c.Node().DisplayName()}
	for _, a := range Ancestors(c) {
		names = append(names, a.Node().DisplayName())
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}

	return strings.Join(names, "/")
}

var (
	componentType = reflect.TypeFor[Component]()
	baseType      = reflect.TypeFor[Base]()
	aliasType     = reflect.TypeFor[Alias]()
)

// IsComponentType reports whether values of t are components: pointers to
// structs embedding Base, or interfaces that require Component.
func IsComponentType(t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return t.Implements(componentType) || t == componentType
	}

	return t.Kind() == reflect.Pointer && t.Implements(componentType)
}

// IsBaseType reports whether t is Base itself.
func IsBaseType(t reflect.Type) bool {
	return t == baseType
}

// IsAliasType reports whether t is the Alias marker.
func IsAliasType(t reflect.Type) bool {
	return t == aliasType
}
