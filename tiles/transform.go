package tiles

import "math"

// Game-space constants for the wiki's world map. The map renderer addresses
// tiles in XYZ convention over a square canvas; in-game planar coordinates
// are anchored at gameMinX/gameMaxY and scaled by gameCoordScale onto it.
const (
	gameCoordScale = 4.0
	gameMinX       = 1024.0
	gameMaxY       = 12608.0
	canvasSize     = 65536.0
)

// XYZToTMSRow converts a top-origin (XYZ) tile row to the bottom-origin (TMS)
// row used by the store's native index. The function is its own inverse:
// applying it twice yields the original row.
func XYZToTMSRow(zoom, row int) int {
	return (1 << zoom) - 1 - row
}

// GameToGeographic projects in-game planar coordinates onto geographic
// latitude/longitude via the inverse Web Mercator projection.
func GameToGeographic(gx, gy float64) (lat, lon float64) {
	nx := (gx - gameMinX) * gameCoordScale / canvasSize
	ny := (gameMaxY - gy) * gameCoordScale / canvasSize

	lon = -180 + nx*360
	lat = math.Atan(math.Sinh(math.Pi*(1-2*ny))) * 180 / math.Pi
	return lat, lon
}

// GeographicToGame is the exact algebraic inverse of GameToGeographic.
func GeographicToGame(lat, lon float64) (gx, gy float64) {
	nx := (lon + 180) / 360
	ny := (1 - math.Asinh(math.Tan(lat*math.Pi/180))/math.Pi) / 2

	gx = nx*canvasSize/gameCoordScale + gameMinX
	gy = gameMaxY - ny*canvasSize/gameCoordScale
	return gx, gy
}
