package solver

// insertion is one candidate placement of a node into a route.
type insertion struct {
	node     int
	vehicle  int
	position int
	delta    int64
}

// buildParallelCheapestInsertion constructs an initial solution by repeatedly
// applying the globally cheapest feasible insertion across all routes at once.
// Opening an empty vehicle charges its fixed cost, so multi-stop routes form
// before new vehicles are drawn. Nodes with no feasible placement anywhere
// stay unassigned.
func buildParallelCheapestInsertion(m *Model, deadline func() bool) ([][]int, []bool) {
	routes := make([][]int, m.Vehicles)
	assigned := make([]bool, m.Nodes)
	assigned[0] = true // the depot is never a customer

	remaining := m.Nodes - 1
	for remaining > 0 {
		if deadline() {
			break
		}
		best, found := cheapestInsertion(m, routes, assigned)
		if !found {
			break
		}
		routes[best.vehicle] = insertAt(routes[best.vehicle], best.position, best.node)
		assigned[best.node] = true
		remaining--
	}

	return routes, assigned
}

func cheapestInsertion(m *Model, routes [][]int, assigned []bool) (insertion, bool) {
	best := insertion{delta: 0}
	found := false

	for node := 1; node < m.Nodes; node++ {
		if assigned[node] {
			continue
		}
		for vehicle := 0; vehicle < m.Vehicles; vehicle++ {
			route := routes[vehicle]
			for pos := 0; pos <= len(route); pos++ {
				delta := m.insertionDelta(route, vehicle, pos, node)
				if found && delta >= best.delta {
					continue
				}
				candidate := insertAt(cloneRoute(route), pos, node)
				if !m.routeFeasible(vehicle, candidate) {
					continue
				}
				best = insertion{node: node, vehicle: vehicle, position: pos, delta: delta}
				found = true
			}
		}
	}

	return best, found
}

// insertionDelta is the arc-cost change of placing node at pos, plus the
// vehicle fixed cost when the route is currently empty.
func (m *Model) insertionDelta(route []int, vehicle, pos, node int) int64 {
	prev := 0
	if pos > 0 {
		prev = route[pos-1]
	}
	next := 0
	if pos < len(route) {
		next = route[pos]
	}
	delta := m.ArcCost[prev][node] + m.ArcCost[node][next] - m.ArcCost[prev][next]
	if len(route) == 0 {
		delta += m.FixedCost[vehicle]
	}
	return delta
}

func insertAt(route []int, pos, node int) []int {
	route = append(route, 0)
	copy(route[pos+1:], route[pos:])
	route[pos] = node
	return route
}

func removeAt(route []int, pos int) []int {
	return append(route[:pos], route[pos+1:]...)
}

func cloneRoute(route []int) []int {
	out := make([]int, len(route))
	copy(out, route)
	return out
}

func cloneRoutes(routes [][]int) [][]int {
	out := make([][]int, len(routes))
	for i, r := range routes {
		out[i] = cloneRoute(r)
	}
	return out
}
