package job

import (
	"fmt"
	"math/rand"
)

var randomClasses = []string{"system", "interactive", "batch", "background"}

// Random generates n one-shot tasks from seed: arrival in [0,10), burst in
// [1,20], priority in [0,5). The same seed always yields the same workload.
func Random(seed int64, n int) *Workload {
	rng := rand.New(rand.NewSource(seed))
	w := &Workload{Name: fmt.Sprintf("random-%d", seed), Tasks: make([]TaskSpec, 0, n)}
	for i := 0; i < n; i++ {
		w.Tasks = append(w.Tasks, TaskSpec{
			ID:          i + 1,
			Name:        fmt.Sprintf("P%d", i+1),
			Arrival:     int64(rng.Intn(10)),
			Burst:       int64(rng.Intn(20) + 1),
			Priority:    rng.Intn(5),
			Class:       randomClasses[rng.Intn(len(randomClasses))],
			IOFrequency: rng.Intn(6),
		})
	}
	return w
}
