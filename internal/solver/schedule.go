package solver

// routeSchedule is the timing of one vehicle's route after a forward pass.
type routeSchedule struct {
	start   int   // departure cumul at the depot
	arrival []int // earliest feasible arrival per served node
	latest  []int // latest feasible arrival per served node
	ret     int   // cumul back at the depot
}

// scheduleRoute runs a forward pass over nodes for the given vehicle and
// reports whether the route is time- and capacity-feasible. Departure is
// pushed past StartMin when that avoids waiting at the first stop longer than
// the slack allowance; at later stops waiting is bounded by SlackMax.
func (m *Model) scheduleRoute(vehicle int, nodes []int) (*routeSchedule, bool) {
	if len(nodes) == 0 {
		start := m.Time.StartMin[vehicle]
		return &routeSchedule{start: start, ret: start}, true
	}

	if !m.routeWithinCapacity(vehicle, nodes) {
		return nil, false
	}

	t := m.Time
	depotWindow := t.Windows[0]

	start := t.StartMin[vehicle]
	if start < depotWindow[0] {
		start = depotWindow[0]
	}

	// Delay departure so the first stop needs no waiting beyond its window
	// opening; shorter spans and no slack burned on the first arc.
	firstTransit := t.Transit[0][nodes[0]]
	firstOpen := t.Windows[nodes[0]][0]
	if start+firstTransit < firstOpen {
		start = firstOpen - firstTransit
	}
	if start > depotWindow[1] {
		return nil, false
	}

	arrival := make([]int, len(nodes))
	cumul := start
	prev := 0
	for i, node := range nodes {
		at := cumul + t.Transit[prev][node]
		window := t.Windows[node]
		if at < window[0] {
			if window[0]-at > t.SlackMax {
				return nil, false
			}
			at = window[0]
		}
		if at > window[1] || at > t.Horizon {
			return nil, false
		}
		arrival[i] = at
		cumul = at
		prev = node
	}

	ret := cumul + t.Transit[prev][0]
	if ret > t.Horizon || ret > depotWindow[1] {
		return nil, false
	}

	// Backward pass: latest arrival at each node that still lets every
	// successor and the depot return meet their bounds.
	latest := make([]int, len(nodes))
	bound := depotWindow[1]
	if t.Horizon < bound {
		bound = t.Horizon
	}
	next := 0
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		l := bound - t.Transit[node][next]
		if w := t.Windows[node][1]; w < l {
			l = w
		}
		latest[i] = l
		bound = l
		next = node
	}

	return &routeSchedule{start: start, arrival: arrival, latest: latest, ret: ret}, true
}

func (m *Model) routeWithinCapacity(vehicle int, nodes []int) bool {
	for _, dim := range m.Capacities {
		var load int64
		for _, node := range nodes {
			load += dim.Demand[node]
		}
		if load > dim.Capacity[vehicle] {
			return false
		}
	}
	return true
}

// routeFeasible is scheduleRoute without materializing the schedule.
func (m *Model) routeFeasible(vehicle int, nodes []int) bool {
	_, ok := m.scheduleRoute(vehicle, nodes)
	return ok
}

// routeArcCost sums the arc costs of the closed tour depot → nodes → depot.
func (m *Model) routeArcCost(nodes []int) int64 {
	if len(nodes) == 0 {
		return 0
	}
	var cost int64
	prev := 0
	for _, node := range nodes {
		cost += m.ArcCost[prev][node]
		prev = node
	}
	cost += m.ArcCost[prev][0]
	return cost
}

// routeSpanCost charges the time dimension's global-span coefficient on the
// vehicle's makespan.
func (m *Model) routeSpanCost(vehicle int, nodes []int) int64 {
	if len(nodes) == 0 || m.Time.SpanCost == 0 {
		return 0
	}
	sched, ok := m.scheduleRoute(vehicle, nodes)
	if !ok {
		return 0
	}
	return int64(sched.ret-sched.start) * m.Time.SpanCost
}
