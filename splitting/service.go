// Package splitting partitions a fixed pool of traffic buckets among
// mutually conflicting experiments and deterministically maps users to
// a bucket and, per experiment, to an A/B group.
package splitting

import (
	"sort"
	"sync"

	"ablab/domain/core"
	"ablab/domain/experiment"
)

// Service owns the bucket table: which experiments run in which bucket.
// The bucket count is fixed for the lifetime of the service. All
// mutation funnels through AddExperiment behind a mutex; ProcessUser is
// a pure read and is safe for unbounded concurrent callers.
type Service struct {
	mu sync.RWMutex

	bucketCount int
	globalSalt  string
	buckets     [][]int
	experiments map[int]experiment.Experiment
}

// NewService creates a splitting service with bucketCount empty buckets.
// globalSalt drives the user-to-bucket hash; changing it reshuffles the
// whole population across buckets.
func NewService(bucketCount int, globalSalt string) *Service {
	buckets := make([][]int, bucketCount)
	for i := range buckets {
		buckets[i] = []int{}
	}
	return &Service{
		bucketCount: bucketCount,
		globalSalt:  globalSalt,
		buckets:     buckets,
		experiments: make(map[int]experiment.Experiment),
	}
}

// NewServiceWithState restores a service around an existing bucket table,
// e.g. one kept by the configuration layer. buckets and experiments are
// copied; the bucket count is fixed to len(buckets).
func NewServiceWithState(globalSalt string, buckets [][]int, experiments map[int]experiment.Experiment) *Service {
	s := NewService(len(buckets), globalSalt)
	for i, b := range buckets {
		s.buckets[i] = append([]int{}, b...)
	}
	for id, exp := range experiments {
		s.experiments[id] = exp
	}
	return s
}

// BucketCount returns the fixed number of buckets.
func (s *Service) BucketCount() int { return s.bucketCount }

// Buckets returns a snapshot of the bucket table: for each bucket, the
// IDs of the experiments it hosts. The snapshot is a deep copy and safe
// to retain.
func (s *Service) Buckets() [][]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() [][]int {
	snapshot := make([][]int, len(s.buckets))
	for i, b := range s.buckets {
		snapshot[i] = append([]int{}, b...)
	}
	return snapshot
}

// AddExperiment tries to place exp into conflict-free buckets.
//
// A bucket is eligible iff no experiment it hosts conflicts with exp in
// either direction: exp's conflict list is checked against occupants
// and every occupant's conflict list is checked against exp. When fewer
// eligible buckets exist than exp.BucketCount the experiment is not
// placed and accepted=false is returned with the state unchanged; that
// is an expected capacity outcome, not an error.
//
// Among eligible buckets the most heavily loaded are taken first (ties
// broken by lower bucket index), preserving lightly loaded buckets for
// future experiments that may need many exclusive slots. Placement is
// irreversible: there is no remove or rollback.
func (s *Service) AddExperiment(exp experiment.Experiment) (accepted bool, snapshot [][]int, err error) {
	if err := exp.Validate(); err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.experiments[exp.ID]; ok {
		return false, nil, core.ErrDuplicateExperiment
	}

	type candidate struct {
		id   int
		load int
	}
	eligible := make([]candidate, 0, len(s.buckets))
	for i, bucket := range s.buckets {
		if s.bucketConflictsLocked(bucket, exp) {
			continue
		}
		eligible = append(eligible, candidate{id: i, load: len(bucket)})
	}

	if len(eligible) < exp.BucketCount {
		return false, s.snapshotLocked(), nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].load > eligible[j].load
	})

	for i := 0; i < exp.BucketCount; i++ {
		id := eligible[i].id
		s.buckets[id] = append(s.buckets[id], exp.ID)
	}
	s.experiments[exp.ID] = exp

	return true, s.snapshotLocked(), nil
}

// bucketConflictsLocked reports whether any occupant of bucket conflicts
// with exp, checking both directions.
func (s *Service) bucketConflictsLocked(bucket []int, exp experiment.Experiment) bool {
	for _, occupantID := range bucket {
		if exp.ConflictsWith(occupantID) {
			return true
		}
		if occupant, ok := s.experiments[occupantID]; ok && occupant.ConflictsWith(exp.ID) {
			return true
		}
	}
	return false
}

// ProcessUser determines the user's bucket and, for every experiment
// hosted there, the A/B group. The result is a pure function of the
// user ID, the global salt, the bucket count, the current bucket
// contents, and each experiment's salt: identical inputs always yield
// identical outputs, across calls and across process restarts.
func (s *Service) ProcessUser(userID string) (int, []experiment.GroupAssignment) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucketID := core.HashBucket(userID, s.globalSalt, s.bucketCount)

	hosted := s.buckets[bucketID]
	groups := make([]experiment.GroupAssignment, 0, len(hosted))
	for _, id := range hosted {
		exp := s.experiments[id]
		group := experiment.GroupB
		if core.HashBucket(userID, exp.GroupSalt(), 2) == 0 {
			group = experiment.GroupA
		}
		groups = append(groups, experiment.GroupAssignment{ExperimentID: id, Group: group})
	}

	return bucketID, groups
}

// CheckPlacement verifies the allocator invariant over a bucket snapshot:
// every experiment occupies exactly its BucketCount buckets and never
// shares a bucket with an experiment from its conflict list.
func CheckPlacement(buckets [][]int, experiments []experiment.Experiment) error {
	for _, exp := range experiments {
		occupied := 0
		for _, bucket := range buckets {
			hosts := false
			for _, id := range bucket {
				if id == exp.ID {
					hosts = true
					break
				}
			}
			if !hosts {
				continue
			}
			occupied++
			for _, id := range bucket {
				if exp.ConflictsWith(id) {
					return core.NewDegenerateInputError("conflicting experiments share a bucket")
				}
			}
		}
		if occupied != exp.BucketCount {
			return core.NewDegenerateInputError("experiment occupies wrong number of buckets")
		}
	}
	return nil
}
