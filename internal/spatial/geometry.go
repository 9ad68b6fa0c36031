package spatial

// PathLength calculates the total length of a path (sequence of coordinates) in meters
func PathLength(path []Coordinate) (float64, error) {
	if len(path) < 2 {
		return 0, nil
	}

	var total float64
	for i := 1; i < len(path); i++ {
		d, err := Distance(path[i-1], path[i])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// Tortuosity calculates the tortuosity of a path
// Tortuosity = actual path length / straight-line distance
// Value of 1 means straight line, >1 means curved/winding path
func Tortuosity(path []Coordinate) (float64, error) {
	if len(path) < 2 {
		return 1.0, nil
	}

	length, err := PathLength(path)
	if err != nil {
		return 0, err
	}
	straight, err := Distance(path[0], path[len(path)-1])
	if err != nil {
		return 0, err
	}
	if straight == 0 {
		return 1.0, nil
	}
	return length / straight, nil
}
