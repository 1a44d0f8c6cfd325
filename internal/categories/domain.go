package categories

import (
	"bytes"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/adminportal/internal/platform/httpx"
)

// PathSeparator joins category names into a display path.
const PathSeparator = " -> "

var (
	ErrNotFound       = httpx.NewError(httpx.ErrNotFound, "Category not found")
	ErrParentNotFound = httpx.NewError(httpx.ErrNotFound, "Parent category not found")
	ErrExists         = httpx.NewError(httpx.ErrDuplicate, "Category with this name already exists")
	ErrHasChildren    = httpx.NewError(httpx.ErrValidation, "Cannot delete category with children. Delete children first.")
	ErrEmptyName      = httpx.NewError(httpx.ErrValidation, "Category name cannot be empty")
	ErrEmptyPath      = httpx.NewError(httpx.ErrValidation, "Category path cannot be empty")
)

// Tree is a nested category hierarchy. A node with no children is a leaf.
type Tree map[string]Tree

// MarshalJSON encodes t one level at a time as nested objects. Leaves render as {}.
func (t Tree) MarshalJSON() ([]byte, error) {
	level := make(map[string]json.RawMessage, len(t))
	for name, child := range t {
		raw, err := child.MarshalJSON()
		if err != nil {
			return nil, err
		}
		level[name] = raw
	}
	return json.Marshal(level)
}

// UnmarshalJSON decodes nested objects into t. A null node is a leaf.
func (t *Tree) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Tree{}
		return nil
	}
	var level map[string]json.RawMessage
	if err := json.Unmarshal(data, &level); err != nil {
		return err
	}
	out := make(Tree, len(level))
	for name, raw := range level {
		var child Tree
		if err := child.UnmarshalJSON(raw); err != nil {
			return err
		}
		out[name] = child
	}
	*t = out
	return nil
}

// Path addresses a node by the names from the root down.
type Path []string

// String renders the path for display.
func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// Node is the flattened view of a tree node.
type Node struct {
	Name     string `json:"name"`
	Path     Path   `json:"path"`
	Leaf     bool   `json:"is_leaf"`
	Children []Node `json:"children"`
}

// NormalizeName trims name and converts it to Unicode NFC.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NormalizePath normalizes every element of p.
func NormalizePath(p []string) Path {
	out := make(Path, len(p))
	for i, name := range p {
		out[i] = NormalizeName(name)
	}
	return out
}

// Find returns the node at p. The empty path addresses the root.
func (t Tree) Find(p Path) (Tree, bool) {
	node := t
	for _, name := range p {
		child, ok := node[name]
		if !ok {
			return nil, false
		}
		node = child
	}
	if node == nil {
		node = Tree{}
	}
	return node, true
}

// IsLeaf reports whether p names an existing node with no children.
func (t Tree) IsLeaf(p Path) bool {
	if len(p) == 0 {
		return false
	}
	node, ok := t.Find(p)
	return ok && len(node) == 0
}

// Nodes flattens t into name-ordered nodes rooted at prefix.
func (t Tree) Nodes(prefix Path) []Node {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Node, 0, len(names))
	for _, name := range names {
		path := append(append(Path{}, prefix...), name)
		child := t[name]
		out = append(out, Node{
			Name:     name,
			Path:     path,
			Leaf:     len(child) == 0,
			Children: child.Nodes(path),
		})
	}
	return out
}

// Leaves returns the paths of every leaf under t in name order.
func (t Tree) Leaves() []Path {
	var out []Path
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.Leaf {
				out = append(out, n.Path)
				continue
			}
			walk(n.Children)
		}
	}
	walk(t.Nodes(nil))
	return out
}
