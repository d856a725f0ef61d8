package task

import "math/rand/v2"

// priorityBound caps priorities for weighting so max-p+1 stays far from
// int64 overflow whatever a %prio annotation says.
const priorityBound = 1 << 31

func rollPriority(p *int) int64 {
	if p == nil {
		return 0
	}
	return min(max(int64(*p), -priorityBound), priorityBound)
}

// Roll draws one task at random. Each prioritised task is weighted
// max-priority+1, where the maximum treats nil as 0, so lower numbers are
// likelier without ever being certain. Unprioritised tasks never win.
// Priorities beyond ±2^31 weigh as if clamped to that range.
// Roll returns nil when no task is eligible. A nil rng uses the global source.
func Roll(tasks []Task, rng *rand.Rand) *Task {
	if len(tasks) == 0 {
		return nil
	}

	var maxPriority int64
	for i, t := range tasks {
		if p := rollPriority(t.Priority); i == 0 || p > maxPriority {
			maxPriority = p
		}
	}

	var total int64
	for _, t := range tasks {
		if t.Priority != nil {
			total += maxPriority - rollPriority(t.Priority) + 1
		}
	}
	if total <= 0 {
		return nil
	}

	var pick int64
	if rng != nil {
		pick = rng.Int64N(total)
	} else {
		pick = rand.Int64N(total)
	}

	for i := range tasks {
		if tasks[i].Priority == nil {
			continue
		}
		pick -= maxPriority - rollPriority(tasks[i].Priority) + 1
		if pick < 0 {
			return &tasks[i]
		}
	}
	return nil
}
