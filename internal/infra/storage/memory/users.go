package memory

import (
	"context"
	"sort"

	domainuser "hotelier/internal/domain/user"
)

type UserRepository struct {
	store   *Store
	journal *journal
}

func (r *UserRepository) ByID(_ context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) ByEmail(_ context.Context, email string) (*domainuser.User, error) {
	email = domainuser.NormalizeEmail(email)
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, u *domainuser.User) error {
	if err := r.journal.writable(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Email == u.Email {
			return domainuser.ErrEmailAlreadyUsed
		}
	}
	clone := *u
	r.store.users[u.ID] = &clone
	id := u.ID
	r.journal.record(func() { delete(r.store.users, id) })
	return nil
}

func (r *UserRepository) List(_ context.Context, role domainuser.Role) ([]*domainuser.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domainuser.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		if role != "" && u.Role != role {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *UserRepository) ByIDs(_ context.Context, ids []domainuser.ID) (map[domainuser.ID]*domainuser.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make(map[domainuser.ID]*domainuser.User, len(ids))
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			clone := *u
			out[id] = &clone
		}
	}
	return out, nil
}

var _ domainuser.Repository = (*UserRepository)(nil)
