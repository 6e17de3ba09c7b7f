package solver

import "time"

// Options tune a single Solve call.
type Options struct {
	// TimeLimit bounds wall-clock search time
	TimeLimit time.Duration

	// Seed makes the search deterministic; identical instances solved with
	// the same seed produce identical solutions
	Seed int64
}

// Solve builds an initial solution with parallel cheapest insertion, improves
// it with guided local search, and extracts the best solution found.
func Solve(m *Model, opts Options) *Solution {
	if !m.validate() {
		return &Solution{Status: StatusNotSolved}
	}

	limit := opts.TimeLimit
	if limit <= 0 {
		limit = 30 * time.Second
	}
	start := time.Now()
	deadline := func() bool { return time.Since(start) >= limit }

	routes, assigned := buildParallelCheapestInsertion(m, deadline)
	constructionDone := allDecided(m, routes, assigned)
	if !constructionDone && deadline() {
		// Ran out of time before every node had a placement decision and no
		// improvement pass could run.
		return &Solution{Status: StatusTimeout, Unassigned: unassignedNodes(m, assigned)}
	}

	s := newSearcher(m, routes, assigned, opts.Seed, deadline)
	converged := s.run()

	solution := m.extract(s.bestRoutes, s.bestAssigned)
	solution.Objective = s.bestObjective

	switch {
	case mustServeDropped(m, s.bestAssigned):
		solution.Status = StatusInfeasible
	case converged:
		solution.Status = StatusOptimal
	default:
		// The deadline, not convergence, ended the search; the incumbent is
		// still published.
		solution.Status = StatusTimeout
	}
	return solution
}

// allDecided reports whether construction either placed every node or proved
// no feasible placement exists for the remainder (cheapestInsertion returned
// nothing while time remained).
func allDecided(m *Model, routes [][]int, assigned []bool) bool {
	for node := 1; node < m.Nodes; node++ {
		if assigned[node] {
			continue
		}
		// Unassigned after construction is a decision (dropped), not an
		// unfinished build, as long as re-running insertion finds nothing.
		if _, found := cheapestInsertion(m, routes, assigned); found {
			return false
		}
		return true
	}
	return true
}

func mustServeDropped(m *Model, assigned []bool) bool {
	for node := 1; node < m.Nodes; node++ {
		if !assigned[node] && m.DropPenalty[node] >= m.MustServePenalty {
			return true
		}
	}
	return false
}

func unassignedNodes(m *Model, assigned []bool) []int {
	var out []int
	for node := 1; node < m.Nodes; node++ {
		if !assigned[node] {
			out = append(out, node)
		}
	}
	return out
}

// extract materializes schedules for the winning routes.
func (m *Model) extract(routes [][]int, assigned []bool) *Solution {
	solution := &Solution{
		Routes:     make([][]int, m.Vehicles),
		Arrival:    make([][]int, m.Vehicles),
		Slack:      make([][]int, m.Vehicles),
		Start:      make([]int, m.Vehicles),
		Return:     make([]int, m.Vehicles),
		Unassigned: unassignedNodes(m, assigned),
	}

	for vehicle, route := range routes {
		solution.Routes[vehicle] = cloneRoute(route)
		sched, ok := m.scheduleRoute(vehicle, route)
		if !ok {
			// Search only ever keeps feasible routes; an empty schedule here
			// means the route is empty.
			sched = &routeSchedule{start: m.Time.StartMin[vehicle], ret: m.Time.StartMin[vehicle]}
		}
		solution.Start[vehicle] = sched.start
		solution.Return[vehicle] = sched.ret
		solution.Arrival[vehicle] = append([]int(nil), sched.arrival...)
		slack := make([]int, len(route))
		for i := range route {
			slack[i] = sched.latest[i] - sched.arrival[i]
			if slack[i] < 0 {
				slack[i] = 0
			}
		}
		solution.Slack[vehicle] = slack
	}

	return solution
}
