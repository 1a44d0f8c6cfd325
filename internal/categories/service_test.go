package categories

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminportal/internal/platform/kv"
)

func newTestService(t *testing.T) (*Service, kv.Store) {
	t.Helper()
	store, err := kv.NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return NewService(store), store
}

func seedTree(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Add(ctx, nil, "Electronics")
	require.NoError(t, err)
	_, err = s.Add(ctx, []string{"Electronics"}, "Audio Device")
	require.NoError(t, err)
	_, err = s.Add(ctx, []string{"Electronics", "Audio Device"}, "Headphones")
	require.NoError(t, err)
	_, err = s.Add(ctx, nil, "Books")
	require.NoError(t, err)
}

func TestAddAndFind(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedTree(t, s)

	node, err := s.Find(ctx, []string{"Electronics", "Audio Device"})
	require.NoError(t, err)
	assert.Contains(t, node, "Headphones")

	_, err = s.Find(ctx, []string{"Electronics", "Video"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Add(ctx, []string{"Electronics"}, "Audio Device")
	assert.ErrorIs(t, err, ErrExists)
	_, err = s.Add(ctx, []string{"Toys"}, "Lego")
	assert.ErrorIs(t, err, ErrParentNotFound)
	_, err = s.Add(ctx, nil, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	// A leaf may gain children.
	path, err := s.Add(ctx, []string{"Books"}, "Fiction")
	require.NoError(t, err)
	assert.Equal(t, "Books -> Fiction", path.String())
}

func TestNamesAreNormalized(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	decomposed := "Cafe\u0301"
	_, err := s.Add(ctx, nil, "  "+decomposed+" ")
	require.NoError(t, err)

	_, err = s.Add(ctx, nil, "Caf\u00e9")
	assert.ErrorIs(t, err, ErrExists)

	leaf, err := s.IsLeaf(ctx, []string{"Cafe\u0301"})
	require.NoError(t, err)
	assert.True(t, leaf)
}

func TestRename(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedTree(t, s)

	path, err := s.Rename(ctx, []string{"Electronics", "Audio Device"}, "Audio")
	require.NoError(t, err)
	assert.Equal(t, Path{"Electronics", "Audio"}, path)

	node, err := s.Find(ctx, []string{"Electronics", "Audio"})
	require.NoError(t, err)
	assert.Contains(t, node, "Headphones", "children move with the node")

	_, err = s.Rename(ctx, []string{"Books"}, "Electronics")
	assert.ErrorIs(t, err, ErrExists)
	_, err = s.Rename(ctx, []string{"Books"}, "Books")
	assert.NoError(t, err)
	_, err = s.Rename(ctx, []string{"Nope"}, "X")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Rename(ctx, nil, "X")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestDeleteRefusesNonLeaf(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedTree(t, s)

	err := s.Delete(ctx, []string{"Electronics"})
	assert.ErrorIs(t, err, ErrHasChildren)

	require.NoError(t, s.Delete(ctx, []string{"Electronics", "Audio Device", "Headphones"}))
	leaf, err := s.IsLeaf(ctx, []string{"Electronics", "Audio Device"})
	require.NoError(t, err)
	assert.True(t, leaf)

	assert.ErrorIs(t, s.Delete(ctx, []string{"Electronics", "Missing"}), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, nil), ErrEmptyPath)
}

func TestTreeNodesAndLeaves(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	seedTree(t, s)

	tree, err := s.Tree(ctx)
	require.NoError(t, err)

	nodes := tree.Nodes(nil)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Books", nodes[0].Name)
	assert.True(t, nodes[0].Leaf)
	assert.Equal(t, "Electronics", nodes[1].Name)
	assert.False(t, nodes[1].Leaf)
	assert.Equal(t, Path{"Electronics", "Audio Device"}, nodes[1].Children[0].Path)

	assert.Equal(t, []Path{{"Books"}, {"Electronics", "Audio Device", "Headphones"}}, tree.Leaves())
	assert.False(t, tree.IsLeaf(nil), "the root is never a leaf")
}

func TestEmptyStoreYieldsEmptyTree(t *testing.T) {
	s, _ := newTestService(t)
	tree, err := s.Tree(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tree)
}

const nestedLayout = `{"Books":{},"Electronics":{"Audio Device":{"Headphones":{}}}}`

func TestTreePersistsAsNestedObjects(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data")
		store, err := kv.NewFileStore(dir)
		require.NoError(t, err)
		s := NewService(store)
		seedTree(t, s)

		raw, err := os.ReadFile(filepath.Join(dir, DocumentKey+".json"))
		require.NoError(t, err)
		assert.JSONEq(t, nestedLayout, string(raw))

		tree, err := NewService(store).Tree(ctx)
		require.NoError(t, err)
		assert.True(t, tree.IsLeaf(Path{"Electronics", "Audio Device", "Headphones"}))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		store := kv.NewRedisStore(client, "portal:")
		s := NewService(store)
		seedTree(t, s)

		raw, err := mr.Get("portal:" + DocumentKey)
		require.NoError(t, err)
		assert.JSONEq(t, nestedLayout, raw)

		require.NoError(t, s.Delete(ctx, []string{"Books"}))
		tree, err := s.Tree(ctx)
		require.NoError(t, err)
		assert.NotContains(t, tree, "Books")
		assert.Contains(t, tree, "Electronics")
	})
}

func TestTreeJSON(t *testing.T) {
	out, err := json.Marshal(map[string]any{"categories": Tree{}, "leaf": Tree(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories":{},"leaf":{}}`, string(out))

	var tree Tree
	require.NoError(t, json.Unmarshal([]byte(`{"A":{"B":null,"C":{}}}`), &tree))
	assert.True(t, tree.IsLeaf(Path{"A", "B"}))
	assert.True(t, tree.IsLeaf(Path{"A", "C"}))
	assert.False(t, tree.IsLeaf(Path{"A"}))

	assert.Error(t, json.Unmarshal([]byte(`{"A":[]}`), &tree))
}
