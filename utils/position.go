package utils

type Position struct {
	X float64
	Y float64
}

// SquaredDistanceFrom returns the planar squared distance between both positions.
func (pos *Position) SquaredDistanceFrom(target Position) float64 {
	dx := pos.X - target.X
	dy := pos.Y - target.Y
	return dx*dx + dy*dy
}
