package geo

import "fmt"

// Coordinate is a single (latitude, longitude) pair. Value semantics only;
// two coordinates are the same point iff their fields are equal.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GenerateGrid builds a sampling grid spanning the bounding box of the four
// corner coordinates. Each axis is linearly spaced into density points,
// inclusive of both ends, and the result is the full cross-product ordered
// latitude-major: all longitudes for a latitude before the next latitude.
// The returned slice always has length density².
func GenerateGrid(corners [4]Coordinate, density int) ([]Coordinate, error) {
	if density < 2 {
		return nil, fmt.Errorf("grid density must be at least 2, got %d", density)
	}

	minLat, maxLat := corners[0].Lat, corners[0].Lat
	minLon, maxLon := corners[0].Lon, corners[0].Lon
	for _, c := range corners[1:] {
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
		if c.Lon < minLon {
			minLon = c.Lon
		}
		if c.Lon > maxLon {
			maxLon = c.Lon
		}
	}

	lats := linspace(minLat, maxLat, density)
	lons := linspace(minLon, maxLon, density)

	grid := make([]Coordinate, 0, density*density)
	for _, lat := range lats {
		for _, lon := range lons {
			grid = append(grid, Coordinate{Lat: lat, Lon: lon})
		}
	}
	return grid, nil
}

// linspace returns n evenly spaced values spanning [start, end] inclusive.
// Requires n >= 2.
func linspace(start, end float64, n int) []float64 {
	step := (end - start) / float64(n-1)
	points := make([]float64, n)
	for i := 0; i < n-1; i++ {
		points[i] = start + float64(i)*step
	}
	// Set the endpoint exactly rather than trusting accumulated float steps.
	points[n-1] = end
	return points
}
