package splitting

import (
	"strconv"
	"testing"

	"ablab/domain/experiment"
)

func TestAddExperiment_ConflictScenario(t *testing.T) {
	experiments := []experiment.Experiment{
		{ID: 1, BucketCount: 4, Conflicts: []int{4}},
		{ID: 2, BucketCount: 2, Conflicts: []int{3}},
		{ID: 3, BucketCount: 2, Conflicts: []int{2}},
		{ID: 4, BucketCount: 1, Conflicts: []int{1}},
	}
	// Experiment 4 is blocked: experiment 1 fills all four buckets and
	// conflicts with it.
	wantAccepted := []bool{true, true, true, false}

	service := NewService(4, "")
	var placed []experiment.Experiment
	for i, exp := range experiments {
		accepted, snapshot, err := service.AddExperiment(exp)
		if err != nil {
			t.Fatalf("AddExperiment(%d) returned error: %v", exp.ID, err)
		}
		if accepted != wantAccepted[i] {
			t.Fatalf("AddExperiment(%d): accepted=%v, want %v", exp.ID, accepted, wantAccepted[i])
		}
		if accepted {
			placed = append(placed, exp)
		}
		if err := CheckPlacement(snapshot, placed); err != nil {
			t.Fatalf("placement invariant violated after experiment %d: %v", exp.ID, err)
		}
	}
}

func TestAddExperiment_PrefersLoadedBuckets(t *testing.T) {
	service := NewService(3, "")

	for id := 1; id <= 2; id++ {
		accepted, _, err := service.AddExperiment(experiment.Experiment{ID: id, BucketCount: 1})
		if err != nil || !accepted {
			t.Fatalf("AddExperiment(%d): accepted=%v err=%v", id, accepted, err)
		}
	}

	// Both single-bucket experiments should stack on the same bucket,
	// keeping the other two free for experiments that need many slots.
	buckets := service.Buckets()
	if len(buckets[0]) != 2 || len(buckets[1]) != 0 || len(buckets[2]) != 0 {
		t.Fatalf("expected both experiments stacked on bucket 0, got %v", buckets)
	}
}

func TestAddExperiment_RejectLeavesStateUnchanged(t *testing.T) {
	service := NewService(2, "")
	if accepted, _, _ := service.AddExperiment(experiment.Experiment{ID: 1, BucketCount: 2}); !accepted {
		t.Fatal("expected experiment 1 to be accepted")
	}
	before := service.Buckets()

	accepted, snapshot, err := service.AddExperiment(experiment.Experiment{ID: 2, BucketCount: 1, Conflicts: []int{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted {
		t.Fatal("expected experiment 2 to be rejected")
	}

	after := service.Buckets()
	for i := range before {
		if len(before[i]) != len(after[i]) || len(snapshot[i]) != len(before[i]) {
			t.Fatalf("state changed on rejection: before=%v after=%v", before, after)
		}
	}
}

func TestAddExperiment_SymmetricConflicts(t *testing.T) {
	service := NewService(2, "")

	// Experiment 1 declares no conflicts; experiment 2 conflicts with 1.
	// The occupant's silence must not let 2 share a bucket with 1.
	if accepted, _, _ := service.AddExperiment(experiment.Experiment{ID: 1, BucketCount: 2}); !accepted {
		t.Fatal("expected experiment 1 to be accepted")
	}
	accepted, _, err := service.AddExperiment(experiment.Experiment{ID: 2, BucketCount: 1, Conflicts: []int{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted {
		t.Fatal("conflicting experiment was placed alongside its conflict")
	}

	// And the reverse direction: the occupant names the newcomer.
	service = NewService(2, "")
	if accepted, _, _ := service.AddExperiment(experiment.Experiment{ID: 3, BucketCount: 2, Conflicts: []int{4}}); !accepted {
		t.Fatal("expected experiment 3 to be accepted")
	}
	accepted, _, err = service.AddExperiment(experiment.Experiment{ID: 4, BucketCount: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted {
		t.Fatal("newcomer was placed alongside an occupant that conflicts with it")
	}
}

func TestAddExperiment_DuplicateID(t *testing.T) {
	service := NewService(2, "")
	if accepted, _, _ := service.AddExperiment(experiment.Experiment{ID: 1, BucketCount: 1}); !accepted {
		t.Fatal("expected first registration to be accepted")
	}
	if _, _, err := service.AddExperiment(experiment.Experiment{ID: 1, BucketCount: 1}); err == nil {
		t.Fatal("expected duplicate experiment id to error")
	}
}

func TestProcessUser_Deterministic(t *testing.T) {
	experiments := map[int]experiment.Experiment{
		0: {ID: 0, Salt: "0"},
		1: {ID: 1, Salt: "1"},
	}
	buckets := [][]int{{0, 1}, {1}, {}, {}}
	service := NewServiceWithState("a2N4", buckets, experiments)

	for i := 0; i < 1000; i++ {
		userID := userIDString(i)
		bucketID, groups := service.ProcessUser(userID)

		if bucketID < 0 || bucketID >= 4 {
			t.Fatalf("bucket id %d out of range", bucketID)
		}
		if len(groups) != len(buckets[bucketID]) {
			t.Fatalf("user %s: got %d group assignments, bucket hosts %d experiments",
				userID, len(groups), len(buckets[bucketID]))
		}
		for _, g := range groups {
			if _, ok := experiments[g.ExperimentID]; !ok {
				t.Fatalf("user %s assigned to unknown experiment %d", userID, g.ExperimentID)
			}
			if g.Group != experiment.GroupA && g.Group != experiment.GroupB {
				t.Fatalf("user %s got invalid group %q", userID, g.Group)
			}
		}

		// Identical inputs always produce identical outputs.
		againID, againGroups := service.ProcessUser(userID)
		if againID != bucketID || len(againGroups) != len(groups) {
			t.Fatalf("user %s: assignment changed between calls", userID)
		}
		for j := range groups {
			if againGroups[j] != groups[j] {
				t.Fatalf("user %s: group assignment changed between calls", userID)
			}
		}
	}
}

func TestProcessUser_BucketDistribution(t *testing.T) {
	const (
		bucketCount = 10
		users       = 10000
	)
	service := NewService(bucketCount, "salt-a")

	counts := make([]int, bucketCount)
	for i := 0; i < users; i++ {
		bucketID, _ := service.ProcessUser(userIDString(i))
		counts[bucketID]++
	}

	// Uniform hashing: each bucket should land near users/bucketCount.
	expected := users / bucketCount
	for i, c := range counts {
		if c < expected-150 || c > expected+150 {
			t.Errorf("bucket %d holds %d users, expected about %d", i, c, expected)
		}
	}
}

func TestProcessUser_SaltChangesDistribution(t *testing.T) {
	const users = 2000
	serviceA := NewService(16, "salt-a")
	serviceB := NewService(16, "salt-b")

	moved := 0
	for i := 0; i < users; i++ {
		userID := userIDString(i)
		bucketA, _ := serviceA.ProcessUser(userID)
		bucketB, _ := serviceB.ProcessUser(userID)
		if bucketA != bucketB {
			moved++
		}
	}

	// Independent hashes agree for about 1/16 of users; far more
	// agreement means the salt is not mixed in.
	if moved < users/2 {
		t.Fatalf("only %d of %d users moved buckets after a salt change", moved, users)
	}
}

func userIDString(i int) string {
	return "user-" + strconv.Itoa(i)
}
