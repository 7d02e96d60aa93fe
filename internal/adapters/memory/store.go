// Package memory holds in-process stores for local runs and tests.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// ReportRepo implements ports.ReportRepository.
type ReportRepo struct {
	mu     sync.RWMutex
	nextID int64
	order  []string
	byID   map[string]domain.Report
}

// NewReportRepo creates an empty ReportRepo.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{byID: make(map[string]domain.Report)}
}

func (r *ReportRepo) Insert(ctx context.Context, report *domain.Report) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := strconv.FormatInt(r.nextID, 10)
	stored := *report
	stored.ID = id
	r.byID[id] = stored
	r.order = append(r.order, id)
	return id, nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rep, nil
}

func (r *ReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	return r.filter(func(domain.Report) bool { return true }), nil
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Report, error) {
	return r.filter(func(rep domain.Report) bool { return rep.UserID == userID }), nil
}

func (r *ReportRepo) filter(keep func(domain.Report) bool) []domain.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Report, 0, len(r.order))
	for _, id := range r.order {
		if rep, ok := r.byID[id]; ok && keep(rep) {
			out = append(out, rep)
		}
	}
	return out
}

func (r *ReportRepo) MarkResolved(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	rep.Resolved = true
	r.byID[id] = rep
	return nil
}

func (r *ReportRepo) IncrementUpvotes(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	rep.UpvoteCount++
	r.byID[id] = rep
	return 1, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AuthorityRepo implements ports.AuthorityRepository.
type AuthorityRepo struct {
	mu    sync.RWMutex
	items []domain.Authority
}

// NewAuthorityRepo creates an AuthorityRepo holding auths in order.
func NewAuthorityRepo(auths ...domain.Authority) *AuthorityRepo {
	r := &AuthorityRepo{}
	for i := range auths {
		_ = r.Upsert(context.Background(), &auths[i])
	}
	return r
}

func (r *AuthorityRepo) List(ctx context.Context) ([]domain.Authority, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Authority, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *AuthorityRepo) GetByName(ctx context.Context, name string) (*domain.Authority, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.items {
		if a.Name == name {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Upsert replaces an authority with the same name in place, keeping its
// position, or appends a new one.
func (r *AuthorityRepo) Upsert(ctx context.Context, a *domain.Authority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].Name == a.Name {
			a.ID = r.items[i].ID
			r.items[i] = *a
			return nil
		}
	}
	a.ID = strconv.Itoa(len(r.items) + 1)
	r.items = append(r.items, *a)
	return nil
}

type upvoteKey struct {
	userID   int64
	reportID string
}

// UpvoteRepo implements ports.UpvoteRepository. Insert is atomic under the
// mutex, so concurrent duplicates are rejected with domain.ErrDuplicate.
type UpvoteRepo struct {
	mu    sync.Mutex
	votes map[upvoteKey]domain.Upvote
}

// NewUpvoteRepo creates an empty UpvoteRepo.
func NewUpvoteRepo() *UpvoteRepo {
	return &UpvoteRepo{votes: make(map[upvoteKey]domain.Upvote)}
}

func (r *UpvoteRepo) Exists(ctx context.Context, userID int64, reportID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.votes[upvoteKey{userID, reportID}]
	return ok, nil
}

func (r *UpvoteRepo) Insert(ctx context.Context, u *domain.Upvote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := upvoteKey{u.UserID, u.ReportID}
	if _, ok := r.votes[k]; ok {
		return domain.ErrDuplicate
	}
	r.votes[k] = *u
	return nil
}

// Count returns the number of stored upvotes.
func (r *UpvoteRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.votes)
}
