package seed

import (
	"sort"
	"sync"
)

// bucketKey identifies the ordered seed list of one operation in one group.
type bucketKey struct {
	group     string
	operation string
}

// Store holds the seeds of one mock instance, ordered by registration within
// each (group, operation) bucket.
type Store struct {
	mu      sync.RWMutex
	buckets map[bucketKey][]*Seed
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{buckets: make(map[bucketKey][]*Seed)}
}

// Append adds a seed to the end of its bucket.
func (s *Store) Append(seed *Seed) {
	key := bucketKey{seed.GroupID, seed.OperationName}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[key] = append(s.buckets[key], seed)
}

// Find returns the most recently registered seed in the bucket that accept
// reports true for, or nil.
func (s *Store) Find(groupID, operationName string, accept func(*Seed) bool) *Seed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.buckets[bucketKey{groupID, operationName}]
	for i := len(bucket) - 1; i >= 0; i-- {
		if accept(bucket[i]) {
			return bucket[i]
		}
	}
	return nil
}

// Replace swaps the stored seed with the same ID for seed, keeping its
// position. It reports whether the seed was found.
func (s *Store) Replace(seed *Seed) bool {
	key := bucketKey{seed.GroupID, seed.OperationName}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.buckets[key]
	for i, existing := range bucket {
		if existing.ID == seed.ID {
			bucket[i] = seed
			return true
		}
	}
	return false
}

// Remove deletes the seed with the given ID. It reports whether it was found.
func (s *Store) Remove(groupID, operationName, id string) bool {
	key := bucketKey{groupID, operationName}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(key, id)
}

func (s *Store) removeLocked(key bucketKey, id string) bool {
	bucket := s.buckets[key]
	for i, existing := range bucket {
		if existing.ID != id {
			continue
		}
		bucket = append(bucket[:i:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(s.buckets, key)
		} else {
			s.buckets[key] = bucket
		}
		return true
	}
	return false
}

// Consume records one use of a seed. Limited seeds are decremented and
// removed when they reach zero; unlimited seeds are left alone. It returns
// the remaining uses and whether the seed was removed. Consuming a seed that
// is no longer stored is a no-op.
func (s *Store) Consume(seed *Seed) (remaining int, removed bool) {
	key := bucketKey{seed.GroupID, seed.OperationName}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.buckets[key] {
		if existing.ID != seed.ID {
			continue
		}
		if existing.Unlimited() {
			return UnlimitedUses, false
		}
		left := existing.Options.UsesLeft - 1
		if left <= 0 {
			s.removeLocked(key, seed.ID)
			return 0, true
		}
		cp := existing.clone()
		cp.Options.UsesLeft = left
		s.buckets[key][i] = cp
		return left, false
	}
	return 0, false
}

// List returns the seeds of a group, or of every group when groupID is
// empty. Buckets are ordered by group then operation name; seeds within a
// bucket keep registration order.
func (s *Store) List(groupID string) []*Seed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]bucketKey, 0, len(s.buckets))
	for key := range s.buckets {
		if groupID == "" || key.group == groupID {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		return keys[i].operation < keys[j].operation
	})

	var out []*Seed
	for _, key := range keys {
		out = append(out, s.buckets[key]...)
	}
	return out
}

// Len returns the number of stored seeds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}

