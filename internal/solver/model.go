// Package solver is an in-process metaheuristic engine for capacitated
// vehicle-routing problems with time windows. A Model is built from the
// primitives a constraint-programming routing backend exposes: an arc-cost
// matrix, cumulative dimensions with per-node bounds, per-node drop
// disjunctions with penalties, and per-vehicle fixed opening costs. Solve
// constructs an initial solution with parallel cheapest insertion and improves
// it with guided local search until the wall-clock limit expires.
package solver

// Native solver status codes. The driver maps these to the backend-neutral
// status enum.
const (
	StatusNotSolved  = 0
	StatusOptimal    = 1
	StatusFeasible   = 2
	StatusInfeasible = 3
	StatusTimeout    = 4
)

// TimeDimension is the cumulative time constraint. Transit values include
// service time at the origin node. Windows bound the cumul at each node;
// waiting (slack) is allowed up to SlackMax minutes per visit.
type TimeDimension struct {
	// Transit[from][to] is travel plus service minutes for the arc
	Transit [][]int

	// Windows[node] = {earliest, latest} arrival in minutes from midnight.
	// The depot window bounds the whole horizon.
	Windows [][2]int

	// SlackMax caps waiting time at any single node
	SlackMax int

	// Horizon is the latest cumul value anywhere (typically 24*60)
	Horizon int

	// StartMin lower-bounds each vehicle's departure cumul
	StartMin []int

	// SpanCost is the per-minute coefficient on each vehicle's route span,
	// a secondary minimization of makespan
	SpanCost int64
}

// CapacityDimension is a unary-demand cumulative constraint such as weight or
// volume.
type CapacityDimension struct {
	Name     string
	Demand   []int64 // per node, zero at the depot
	Capacity []int64 // per vehicle
}

// Model is one routing problem instance. Node 0 is the depot; vehicles all
// start and end there.
type Model struct {
	Nodes    int
	Vehicles int

	// ArcCost[from][to] is the primary objective term (distance in meters)
	ArcCost [][]int64

	// FixedCost is charged per vehicle that serves at least one node
	FixedCost []int64

	Time       *TimeDimension
	Capacities []*CapacityDimension

	// DropPenalty[node] is the objective cost of leaving the node unserved.
	// Zero at the depot.
	DropPenalty []int64

	// MustServePenalty marks effectively-mandatory nodes: leaving a node with
	// DropPenalty >= MustServePenalty unassigned makes the instance
	// infeasible rather than merely expensive.
	MustServePenalty int64
}

// Solution is the engine's answer. Routes holds, per vehicle, the ordered
// nodes served (depot excluded); vehicles with empty routes served nothing.
type Solution struct {
	Status     int
	Routes     [][]int
	Arrival    [][]int // time cumul at each served node
	Slack      [][]int // latest minus earliest feasible arrival at each node
	Start      []int   // departure cumul per vehicle
	Return     []int   // cumul back at the depot per vehicle
	Unassigned []int
	Objective  int64
}

func (m *Model) validate() bool {
	if m.Nodes < 1 || m.Vehicles < 1 {
		return false
	}
	if len(m.ArcCost) != m.Nodes || len(m.DropPenalty) != m.Nodes {
		return false
	}
	if m.Time == nil || len(m.Time.Transit) != m.Nodes || len(m.Time.Windows) != m.Nodes {
		return false
	}
	if len(m.Time.StartMin) != m.Vehicles || len(m.FixedCost) != m.Vehicles {
		return false
	}
	for _, dim := range m.Capacities {
		if len(dim.Demand) != m.Nodes || len(dim.Capacity) != m.Vehicles {
			return false
		}
	}
	return true
}
