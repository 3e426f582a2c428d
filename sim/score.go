package sim

// Evaluation is the Scorer's verdict on one completed schedule.
type Evaluation struct {
	// Produced is the final quantity of the optimization target.
	Produced int64
	// Score is Produced divided by the schedule's last cycle (0 when that cycle is 0).
	Score float64
	// Viable is true when the schedule can be repeated forever without
	// depleting any originally seeded resource.
	Viable bool
}

// Evaluate scores a schedule against its final stock and the shared initial stock.
// It is pure: the same inputs always give the same Evaluation.
func Evaluate(schedule Schedule, final, initial Stock, target string) Evaluation {
	ev := Evaluation{Produced: final.Get(target)}

	if last := schedule.LastCycle(); len(schedule) > 0 && last != 0 {
		ev.Score = float64(ev.Produced) / float64(last)
	}

	ev.Viable = schedule.Starts()
	for name, qty := range initial {
		if final.Get(name) < qty {
			ev.Viable = false
			break
		}
	}
	return ev
}

// Better reports whether a beats b: viability first, then score, then
// produced quantity. Equal evaluations are not better.
func Better(a, b Evaluation) bool {
	if a.Viable != b.Viable {
		return a.Viable
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Produced > b.Produced
}
