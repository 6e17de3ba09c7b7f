package solver

import "math/rand"

// convergedRounds is how many penalization rounds without a real-objective
// improvement the search tolerates before declaring convergence.
const convergedRounds = 40

// glsAlpha scales the penalty weight lambda relative to the solution cost.
const glsAlpha = 10

// searcher runs guided local search over a constructed solution. Arc
// penalties accumulate on long arcs that keep appearing in local optima,
// steering the augmented objective away from them.
type searcher struct {
	m         *Model
	rng       *rand.Rand
	deadline  func() bool
	penalties map[[2]int]int64
	lambda    int64

	routes   [][]int
	assigned []bool

	bestRoutes    [][]int
	bestAssigned  []bool
	bestObjective int64
}

func newSearcher(m *Model, routes [][]int, assigned []bool, seed int64, deadline func() bool) *searcher {
	s := &searcher{
		m:         m,
		rng:       rand.New(rand.NewSource(seed)),
		deadline:  deadline,
		penalties: make(map[[2]int]int64),
		routes:    routes,
		assigned:  assigned,
	}
	s.recordBest()
	return s
}

// run improves the working solution until the deadline or convergence.
// It reports whether the search converged before the time limit.
func (s *searcher) run() bool {
	stale := 0
	for !s.deadline() {
		improvedAny := false
		for s.improveStep() {
			improvedAny = true
			if s.deadline() {
				return false
			}
		}
		if s.recordBest() {
			stale = 0
		} else if !improvedAny {
			stale++
			if stale >= convergedRounds {
				return true
			}
		}
		s.penalizeArcs()
	}
	return false
}

// recordBest keeps the incumbent under the real (unpenalized) objective.
func (s *searcher) recordBest() bool {
	obj := s.m.objective(s.routes, s.assigned)
	if s.bestRoutes == nil || obj < s.bestObjective {
		s.bestObjective = obj
		s.bestRoutes = cloneRoutes(s.routes)
		s.bestAssigned = append([]bool(nil), s.assigned...)
		return true
	}
	return false
}

// improveStep applies the first improving move found under the augmented
// objective. Neighborhoods are scanned in a fixed order so a fixed seed
// yields a deterministic trajectory.
func (s *searcher) improveStep() bool {
	return s.tryInsertUnassigned() ||
		s.tryRelocate() ||
		s.trySwap() ||
		s.tryTwoOpt() ||
		s.tryDrop()
}

func (s *searcher) augmented(routes [][]int, assigned []bool) int64 {
	total := s.m.objective(routes, assigned)
	if s.lambda == 0 {
		return total
	}
	for _, route := range routes {
		prev := 0
		for _, node := range route {
			total += s.lambda * s.penalties[[2]int{prev, node}]
			prev = node
		}
		if len(route) > 0 {
			total += s.lambda * s.penalties[[2]int{prev, 0}]
		}
	}
	return total
}

// tryInsertUnassigned places a dropped node back when its penalty outweighs
// the insertion cost.
func (s *searcher) tryInsertUnassigned() bool {
	current := s.augmented(s.routes, s.assigned)
	for node := 1; node < s.m.Nodes; node++ {
		if s.assigned[node] {
			continue
		}
		for vehicle := range s.routes {
			route := s.routes[vehicle]
			for pos := 0; pos <= len(route); pos++ {
				candidate := insertAt(cloneRoute(route), pos, node)
				if !s.m.routeFeasible(vehicle, candidate) {
					continue
				}
				trial := cloneRoutes(s.routes)
				trial[vehicle] = candidate
				trialAssigned := append([]bool(nil), s.assigned...)
				trialAssigned[node] = true
				if s.augmented(trial, trialAssigned) < current {
					s.routes = trial
					s.assigned = trialAssigned
					return true
				}
			}
		}
	}
	return false
}

// tryRelocate moves a single node to a different position or route.
func (s *searcher) tryRelocate() bool {
	current := s.augmented(s.routes, s.assigned)
	for fromV := range s.routes {
		for i := range s.routes[fromV] {
			node := s.routes[fromV][i]
			for toV := range s.routes {
				toLen := len(s.routes[toV])
				for pos := 0; pos <= toLen; pos++ {
					if fromV == toV && (pos == i || pos == i+1) {
						continue
					}
					trial := cloneRoutes(s.routes)
					trial[fromV] = removeAt(trial[fromV], i)
					insertPos := pos
					if fromV == toV && pos > i {
						insertPos--
					}
					trial[toV] = insertAt(trial[toV], insertPos, node)
					if !s.m.routeFeasible(fromV, trial[fromV]) || !s.m.routeFeasible(toV, trial[toV]) {
						continue
					}
					if s.augmented(trial, s.assigned) < current {
						s.routes = trial
						return true
					}
				}
			}
		}
	}
	return false
}

// trySwap exchanges two nodes between (or within) routes.
func (s *searcher) trySwap() bool {
	current := s.augmented(s.routes, s.assigned)
	for v1 := range s.routes {
		for i := range s.routes[v1] {
			for v2 := v1; v2 < len(s.routes); v2++ {
				start := 0
				if v2 == v1 {
					start = i + 1
				}
				for j := start; j < len(s.routes[v2]); j++ {
					trial := cloneRoutes(s.routes)
					trial[v1][i], trial[v2][j] = trial[v2][j], trial[v1][i]
					if !s.m.routeFeasible(v1, trial[v1]) || !s.m.routeFeasible(v2, trial[v2]) {
						continue
					}
					if s.augmented(trial, s.assigned) < current {
						s.routes = trial
						return true
					}
				}
			}
		}
	}
	return false
}

// tryTwoOpt reverses a segment within one route.
func (s *searcher) tryTwoOpt() bool {
	current := s.augmented(s.routes, s.assigned)
	for v := range s.routes {
		route := s.routes[v]
		for i := 0; i < len(route)-1; i++ {
			for j := i + 1; j < len(route); j++ {
				trial := cloneRoutes(s.routes)
				reverseSegment(trial[v], i, j)
				if !s.m.routeFeasible(v, trial[v]) {
					continue
				}
				if s.augmented(trial, s.assigned) < current {
					s.routes = trial
					return true
				}
			}
		}
	}
	return false
}

// tryDrop removes a node when paying its drop penalty beats serving it.
// Must-serve nodes are never dropped.
func (s *searcher) tryDrop() bool {
	current := s.augmented(s.routes, s.assigned)
	for v := range s.routes {
		for i := range s.routes[v] {
			node := s.routes[v][i]
			if s.m.DropPenalty[node] >= s.m.MustServePenalty {
				continue
			}
			trial := cloneRoutes(s.routes)
			trial[v] = removeAt(trial[v], i)
			trialAssigned := append([]bool(nil), s.assigned...)
			trialAssigned[node] = false
			if s.augmented(trial, trialAssigned) < current {
				s.routes = trial
				s.assigned = trialAssigned
				return true
			}
		}
	}
	return false
}

func reverseSegment(route []int, i, j int) {
	for i < j {
		route[i], route[j] = route[j], route[i]
		i++
		j--
	}
}

// penalizeArcs increments the penalty of one arc with maximal GLS utility
// cost/(1+penalty) in the current solution, breaking ties with the seeded
// RNG, then refreshes lambda from the current solution cost.
func (s *searcher) penalizeArcs() {
	type arc struct {
		from, to int
	}
	var (
		maxUtil float64
		chosen  []arc
		arcs    int
	)
	for _, route := range s.routes {
		prev := 0
		for k := 0; k <= len(route); k++ {
			if len(route) == 0 {
				break
			}
			to := 0
			if k < len(route) {
				to = route[k]
			}
			arcs++
			cost := float64(s.m.ArcCost[prev][to])
			util := cost / float64(1+s.penalties[[2]int{prev, to}])
			if util > maxUtil {
				maxUtil = util
				chosen = chosen[:0]
			}
			if util == maxUtil && util > 0 {
				chosen = append(chosen, arc{prev, to})
			}
			prev = to
		}
	}
	if len(chosen) > 0 {
		picked := chosen[s.rng.Intn(len(chosen))]
		s.penalties[[2]int{picked.from, picked.to}]++
	}
	if arcs > 0 {
		s.lambda = s.m.objective(s.routes, s.assigned) / int64(glsAlpha*arcs)
		if s.lambda < 1 {
			s.lambda = 1
		}
	}
}

// objective is the real cost: arcs plus opened-vehicle fixed costs plus span
// costs plus drop penalties for unserved nodes.
func (m *Model) objective(routes [][]int, assigned []bool) int64 {
	var total int64
	for vehicle, route := range routes {
		if len(route) == 0 {
			continue
		}
		total += m.FixedCost[vehicle]
		total += m.routeArcCost(route)
		total += m.routeSpanCost(vehicle, route)
	}
	for node := 1; node < m.Nodes; node++ {
		if !assigned[node] {
			total += m.DropPenalty[node]
		}
	}
	return total
}
