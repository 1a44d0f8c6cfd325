package categories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/adminportal/internal/platform/kv"
)

// DocumentKey is the store key holding the category tree.
const DocumentKey = "categories"

// Service manages the category tree.
type Service struct {
	store kv.Store
	mu    sync.Mutex
}

// NewService constructs a Service over store.
func NewService(store kv.Store) *Service {
	return &Service{store: store}
}

// Tree returns the current category tree.
func (s *Service) Tree(ctx context.Context) (Tree, error) {
	tree := Tree{}
	if err := s.store.Get(ctx, DocumentKey, &tree); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Tree{}, nil
		}
		return nil, fmt.Errorf("categories: load: %w", err)
	}
	return tree, nil
}

func (s *Service) save(ctx context.Context, tree Tree) error {
	if err := s.store.Put(ctx, DocumentKey, tree); err != nil {
		return fmt.Errorf("categories: save: %w", err)
	}
	return nil
}

// Find returns the subtree at path.
func (s *Service) Find(ctx context.Context, path []string) (Tree, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := tree.Find(NormalizePath(path))
	if !ok {
		return nil, ErrNotFound
	}
	return node, nil
}

// IsLeaf reports whether path names an existing leaf category.
func (s *Service) IsLeaf(ctx context.Context, path []string) (bool, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return false, err
	}
	return tree.IsLeaf(NormalizePath(path)), nil
}

// Add creates name under parent (the root when parent is empty).
func (s *Service) Add(ctx context.Context, parent []string, name string) (Path, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	parentPath := NormalizePath(parent)
	var created Path
	err := s.mutate(ctx, func(tree Tree) error {
		node, ok := tree.Find(parentPath)
		if !ok {
			return ErrParentNotFound
		}
		if _, exists := node[name]; exists {
			return ErrExists
		}
		node[name] = Tree{}
		attach(tree, parentPath, node)
		created = append(append(Path{}, parentPath...), name)
		return nil
	})
	return created, err
}

// Rename changes the last element of path to newName, keeping its children.
func (s *Service) Rename(ctx context.Context, path []string, newName string) (Path, error) {
	newName = NormalizeName(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}
	p := NormalizePath(path)
	if len(p) == 0 {
		return nil, ErrEmptyPath
	}
	var renamed Path
	err := s.mutate(ctx, func(tree Tree) error {
		parentPath, old := p[:len(p)-1], p[len(p)-1]
		parent, ok := tree.Find(parentPath)
		if !ok {
			return ErrNotFound
		}
		child, ok := parent[old]
		if !ok {
			return ErrNotFound
		}
		if _, exists := parent[newName]; exists && newName != old {
			return ErrExists
		}
		delete(parent, old)
		parent[newName] = child
		attach(tree, parentPath, parent)
		renamed = append(append(Path{}, parentPath...), newName)
		return nil
	})
	return renamed, err
}

// Delete removes the leaf at path.
func (s *Service) Delete(ctx context.Context, path []string) error {
	p := NormalizePath(path)
	if len(p) == 0 {
		return ErrEmptyPath
	}
	return s.mutate(ctx, func(tree Tree) error {
		parentPath, name := p[:len(p)-1], p[len(p)-1]
		parent, ok := tree.Find(parentPath)
		if !ok {
			return ErrNotFound
		}
		child, ok := parent[name]
		if !ok {
			return ErrNotFound
		}
		if len(child) > 0 {
			return ErrHasChildren
		}
		delete(parent, name)
		attach(tree, parentPath, parent)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, fn func(Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, err := s.Tree(ctx)
	if err != nil {
		return err
	}
	if err := fn(tree); err != nil {
		return err
	}
	return s.save(ctx, tree)
}

// attach stores node at path so that edits to a formerly nil leaf persist.
func attach(tree Tree, path Path, node Tree) {
	if len(path) == 0 {
		return
	}
	parent := tree
	for _, name := range path[:len(path)-1] {
		parent = parent[name]
	}
	parent[path[len(path)-1]] = node
}
