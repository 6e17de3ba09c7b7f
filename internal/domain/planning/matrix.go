package planning

import "math"

// EarthRadiusKm is the WGS-84 mean radius used for great-circle distances
const EarthRadiusKm = 6371.0

// Location is a WGS-84 coordinate pair in decimal degrees
type Location struct {
	Latitude  float64
	Longitude float64
}

// HaversineMeters returns the great-circle distance between two locations in
// whole meters
func HaversineMeters(a, b Location) int64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180.0
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return int64(math.Round(EarthRadiusKm * 1000.0 * c))
}

// TravelMatrices holds the node-by-node distance and travel-time grids for a
// problem instance. Node 0 is the depot; nodes 1..N-1 follow the shipment
// ordering given to the builder.
type TravelMatrices struct {
	Distance [][]int64 // meters
	Time     [][]int   // minutes
	speedKmh float64
}

// BuildTravelMatrices computes symmetric haversine distances and derives
// travel minutes at the configured average speed.
func BuildTravelMatrices(depot Location, stops []Location, speedKmh float64) *TravelMatrices {
	nodes := make([]Location, 0, len(stops)+1)
	nodes = append(nodes, depot)
	nodes = append(nodes, stops...)

	n := len(nodes)
	metersPerMinute := speedKmh * 1000.0 / 60.0

	distance := make([][]int64, n)
	travel := make([][]int, n)
	for i := range nodes {
		distance[i] = make([]int64, n)
		travel[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := HaversineMeters(nodes[i], nodes[j])
			t := int(math.Round(float64(d) / metersPerMinute))
			distance[i][j] = d
			distance[j][i] = d
			travel[i][j] = t
			travel[j][i] = t
		}
	}

	return &TravelMatrices{Distance: distance, Time: travel, speedKmh: speedKmh}
}

// Size returns the number of nodes including the depot
func (m *TravelMatrices) Size() int {
	return len(m.Distance)
}

// DistanceMeters returns the arc distance between two nodes
func (m *TravelMatrices) DistanceMeters(from, to int) int64 {
	return m.Distance[from][to]
}

// DistanceKm returns the arc distance in kilometers
func (m *TravelMatrices) DistanceKm(from, to int) float64 {
	return float64(m.Distance[from][to]) / 1000.0
}

// TravelMinutes returns the arc travel time between two nodes
func (m *TravelMatrices) TravelMinutes(from, to int) int {
	return m.Time[from][to]
}

// SpeedKmh returns the average speed the time grid was derived with
func (m *TravelMatrices) SpeedKmh() float64 {
	return m.speedKmh
}
