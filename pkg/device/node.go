package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/csrlink/csrlink-go/pkg/register"
)

// RootName is the name of the root node built by Build.
const RootName = "top"

// Tree errors.
var (
	// ErrDuplicateName indicates two siblings (registers or children) with
	// the same name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnknownPath is returned by Lookup and Find for paths that do not
	// resolve.
	ErrUnknownPath = errors.New("unknown path")
)

// Node is one component instance in the tree.
type Node struct {
	name   string
	typ    string
	parent *Node

	children   []*Node
	childIndex map[string]*Node

	registers []register.Spec
	regIndex  map[string]int
}

// Flat is a register together with its position in the tree.
type Flat struct {
	// Key is the fully-qualified address table name.
	Key string

	// Path is the dotted path relative to the root, e.g. "led0to3.led1_rate".
	Path string

	// Node owns the register.
	Node *Node

	// Spec is the register declaration.
	Spec register.Spec
}

// Build instantiates a manifest as the root of a tree.
func Build(m *Manifest) (*Node, error) {
	return BuildNamed(RootName, m)
}

// BuildNamed instantiates a manifest as a detached subtree with the given
// name.
func BuildNamed(name string, m *Manifest) (*Node, error) {
	return build(name, m, nil, 0)
}

// maxDepth bounds recursive manifests.
const maxDepth = 64

func build(name string, m *Manifest, parent *Node, depth int) (*Node, error) {
	if m == nil {
		return nil, fmt.Errorf("%s: nil manifest", name)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("%s: tree deeper than %d levels", name, maxDepth)
	}
	if name == "" || strings.ContainsAny(name, ". ") {
		return nil, fmt.Errorf("invalid component name %q", name)
	}

	n := &Node{
		name:       name,
		typ:        m.Type,
		parent:     parent,
		childIndex: make(map[string]*Node, len(m.Children)),
		regIndex:   make(map[string]int, len(m.Registers)),
	}

	for _, decl := range m.Registers {
		spec := decl.WithDefaults()
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", n.dotted(), err)
		}
		if strings.Contains(spec.Name, ".") {
			return nil, fmt.Errorf("%s: %w: register name %q contains a dot", n.dotted(), register.ErrInvalidSpec, spec.Name)
		}
		if _, dup := n.regIndex[spec.Name]; dup {
			return nil, fmt.Errorf("%s: %w: register %q", n.dotted(), ErrDuplicateName, spec.Name)
		}
		n.regIndex[spec.Name] = len(n.registers)
		n.registers = append(n.registers, spec)
	}

	for _, c := range m.Children {
		if _, dup := n.regIndex[c.Name]; dup {
			return nil, fmt.Errorf("%s: %w: child %q shadows a register", n.dotted(), ErrDuplicateName, c.Name)
		}
		if _, dup := n.childIndex[c.Name]; dup {
			return nil, fmt.Errorf("%s: %w: child %q", n.dotted(), ErrDuplicateName, c.Name)
		}
		child, err := build(c.Name, c.Manifest, n, depth+1)
		if err != nil {
			return nil, err
		}
		n.childIndex[c.Name] = child
		n.children = append(n.children, child)
	}
	return n, nil
}

// Name returns the instance name.
func (n *Node) Name() string { return n.name }

// Type returns the manifest type name.
func (n *Node) Type() string { return n.typ }

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the root of the tree.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Children returns the sub-components in declaration order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Child returns the named sub-component.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.childIndex[name]
	return c, ok
}

// Registers returns the register declarations in declaration order.
func (n *Node) Registers() []register.Spec {
	return append([]register.Spec(nil), n.registers...)
}

// Register returns the named register declaration.
func (n *Node) Register(name string) (register.Spec, bool) {
	i, ok := n.regIndex[name]
	if !ok {
		return register.Spec{}, false
	}
	return n.registers[i], true
}

// Path returns the instance names from the root down to n.
func (n *Node) Path() []string {
	var path []string
	for p := n; p != nil; p = p.parent {
		path = append(path, p.name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FullName returns the address table key of a register owned by n.
func (n *Node) FullName(reg string) string {
	path := n.Path()
	parts := append(path[1:], reg)
	return path[0] + "." + strings.Join(parts, "_") + "_csr"
}

// Flatten walks the subtree depth-first, yielding the registers of a node
// before those of its children, both in declaration order.
func (n *Node) Flatten() []Flat {
	var out []Flat
	n.flatten(&out)
	return out
}

func (n *Node) flatten(out *[]Flat) {
	for _, spec := range n.registers {
		*out = append(*out, Flat{
			Key:  n.FullName(spec.Name),
			Path: n.relative(spec.Name),
			Node: n,
			Spec: spec,
		})
	}
	for _, c := range n.children {
		c.flatten(out)
	}
}

// Find resolves a dotted component path relative to n. The empty path
// resolves to n.
func (n *Node) Find(path string) (*Node, error) {
	if path == "" {
		return n, nil
	}
	cur := n
	for _, part := range strings.Split(path, ".") {
		next, ok := cur.childIndex[part]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no component %q", ErrUnknownPath, cur.dotted(), part)
		}
		cur = next
	}
	return cur, nil
}

// Lookup resolves a dotted register path such as "sub.child.reg" relative
// to n.
func (n *Node) Lookup(path string) (Flat, error) {
	owner, name := n, path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		var err error
		owner, err = n.Find(path[:i])
		if err != nil {
			return Flat{}, err
		}
		name = path[i+1:]
	}
	spec, ok := owner.Register(name)
	if !ok {
		return Flat{}, fmt.Errorf("%w: %s has no register %q", ErrUnknownPath, owner.dotted(), name)
	}
	return Flat{
		Key:  owner.FullName(name),
		Path: owner.relative(name),
		Node: owner,
		Spec: spec,
	}, nil
}

// String returns the dotted instance path.
func (n *Node) String() string {
	return n.dotted()
}

func (n *Node) dotted() string {
	return strings.Join(n.Path(), ".")
}

// relative returns the dotted path of reg below the root.
func (n *Node) relative(reg string) string {
	path := n.Path()[1:]
	return strings.Join(append(path, reg), ".")
}
