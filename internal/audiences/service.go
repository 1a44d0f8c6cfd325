package audiences

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/adminportal/internal/categories"
	"github.com/noah-isme/adminportal/internal/platform/httpx"
	"github.com/noah-isme/adminportal/internal/platform/kv"
)

// DocumentKey is the store key holding every audience record.
const DocumentKey = "audiences"

// Catalog resolves category paths.
type Catalog interface {
	Find(ctx context.Context, path []string) (categories.Tree, error)
}

type document map[string]*Audience

// Service manages audiences and their category assignments.
type Service struct {
	store   kv.Store
	catalog Catalog
	mu      sync.Mutex
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(store kv.Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog, now: time.Now}
}

func (s *Service) load(ctx context.Context) (document, error) {
	doc := document{}
	if err := s.store.Get(ctx, DocumentKey, &doc); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return document{}, nil
		}
		return nil, fmt.Errorf("audiences: load: %w", err)
	}
	for id, record := range doc {
		if record == nil {
			delete(doc, id)
		}
	}
	return doc, nil
}

func (s *Service) save(ctx context.Context, doc document) error {
	if err := s.store.Put(ctx, DocumentKey, doc); err != nil {
		return fmt.Errorf("audiences: save: %w", err)
	}
	return nil
}

// leafPath normalizes path and checks that it names an existing leaf category.
func (s *Service) leafPath(ctx context.Context, path []string) (categories.Path, error) {
	p := categories.NormalizePath(path)
	if len(p) == 0 {
		return nil, ErrEmptyPath
	}
	node, err := s.catalog.Find(ctx, p)
	if err != nil {
		if errors.Is(err, categories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if len(node) > 0 {
		return nil, ErrNotLeaf
	}
	return p, nil
}

// Assign adds the leaf category at path to audience id, creating the audience
// with info when it does not exist yet. Info is ignored for existing audiences.
// The returned bool is false when the assignment was already present.
func (s *Service) Assign(ctx context.Context, id string, path []string, info *Info, createdBy string) (Audience, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Audience{}, false, ErrEmptyID
	}
	if info != nil {
		if err := info.validate(); err != nil {
			return Audience{}, false, err
		}
	}
	p, err := s.leafPath(ctx, path)
	if err != nil {
		return Audience{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return Audience{}, false, err
	}
	return s.assignLocked(ctx, doc, id, p, info, createdBy)
}

func (s *Service) assignLocked(ctx context.Context, doc document, id string, p categories.Path, info *Info, createdBy string) (Audience, bool, error) {
	now := s.now().UTC()
	record, ok := doc[id]
	if !ok {
		record = &Audience{ID: id, CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now, Categories: []Assignment{}}
		if info != nil {
			record.Info = *info
		}
		doc[id] = record
	}
	if record.assignment(p.String()) >= 0 {
		return *record, false, nil
	}
	record.Categories = append(record.Categories, Assignment{CategoryPath: p, PathString: p.String(), AssignedAt: now})
	record.UpdatedAt = now
	if err := s.save(ctx, doc); err != nil {
		return Audience{}, false, err
	}
	return *record, true, nil
}

// AssignBatch assigns every id in ids to the leaf category at path. Domain
// failures are reported per audience; store failures abort the batch.
func (s *Service) AssignBatch(ctx context.Context, ids []string, path []string, createdBy string) (BatchResult, error) {
	result := BatchResult{Total: len(ids), Details: make([]BatchItem, 0, len(ids))}
	p, pathErr := s.leafPath(ctx, path)
	if pathErr != nil && !httpx.IsDomain(pathErr) {
		return BatchResult{}, pathErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		item := BatchItem{AudienceID: id}
		switch {
		case pathErr != nil:
			item.Message = pathErr.Error()
		case id == "":
			item.Message = ErrEmptyID.Error()
		default:
			_, added, err := s.assignLocked(ctx, doc, id, p, nil, createdBy)
			if err != nil {
				return BatchResult{}, err
			}
			item.Success = true
			item.Message = assignMessage(added)
		}
		if item.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Details = append(result.Details, item)
	}
	return result, nil
}

func assignMessage(added bool) string {
	if added {
		return "Audience added to category successfully"
	}
	return "Audience already assigned to this category"
}

// Get returns the audience with id.
func (s *Service) Get(ctx context.Context, id string) (Audience, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return Audience{}, err
	}
	record, ok := doc[id]
	if !ok {
		return Audience{}, ErrNotFound
	}
	return *record, nil
}

// CategoriesOf returns the assignments of audience id. Unknown audiences have none.
func (s *Service) CategoriesOf(ctx context.Context, id string) ([]Assignment, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := doc[id]
	if !ok {
		return []Assignment{}, nil
	}
	return append([]Assignment{}, record.Categories...), nil
}

// AudiencesOf returns the audiences assigned to the category at path, ordered by id.
func (s *Service) AudiencesOf(ctx context.Context, path []string) ([]Member, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	key := categories.NormalizePath(path).String()
	members := []Member{}
	for _, id := range doc.ids() {
		record := doc[id]
		if i := record.assignment(key); i >= 0 {
			members = append(members, Member{AudienceID: id, Info: record.Info, AssignedAt: record.Categories[i].AssignedAt})
		}
	}
	return members, nil
}

// HasAudience returns the first audience assigned to the category at path.
func (s *Service) HasAudience(ctx context.Context, path []string) (Member, bool, error) {
	members, err := s.AudiencesOf(ctx, path)
	if err != nil || len(members) == 0 {
		return Member{}, false, err
	}
	return members[0], true, nil
}

// List returns one page of audiences ordered by id together with the total
// number matching opts.Search.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Audience, int, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, 0, err
	}
	term := strings.ToLower(strings.TrimSpace(opts.Search))
	matched := make([]Audience, 0, len(doc))
	for _, id := range doc.ids() {
		if term == "" || doc[id].matches(term) {
			matched = append(matched, *doc[id])
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset := max(opts.Offset, 0)
	if offset >= len(matched) {
		return []Audience{}, len(matched), nil
	}
	end := len(matched)
	if limit < end-offset {
		end = offset + limit
	}
	return matched[offset:end], len(matched), nil
}

// Unassign removes the category at path from audience id.
func (s *Service) Unassign(ctx context.Context, id string, path []string) error {
	key := categories.NormalizePath(path).String()
	return s.mutate(ctx, id, func(record *Audience) error {
		i := record.assignment(key)
		if i < 0 {
			return ErrNotAssigned
		}
		record.Categories = append(record.Categories[:i], record.Categories[i+1:]...)
		return nil
	})
}

// UpdateInfo overwrites the known info fields present in update.
func (s *Service) UpdateInfo(ctx context.Context, id string, update InfoUpdate) (Audience, error) {
	if update.empty() {
		return Audience{}, ErrNoChanges
	}
	var out Audience
	err := s.mutate(ctx, id, func(record *Audience) error {
		info := record.Info
		update.apply(&info)
		if err := info.validate(); err != nil {
			return err
		}
		record.Info = info
		out = *record
		return nil
	})
	return out, err
}

// Statistics counts audiences and assignments.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats := Statistics{TotalAudiences: len(doc)}
	for _, record := range doc {
		stats.TotalAssignments += len(record.Categories)
	}
	return stats, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Audience) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	record, ok := doc[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(record); err != nil {
		return err
	}
	record.UpdatedAt = s.now().UTC()
	return s.save(ctx, doc)
}

func (d document) ids() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
