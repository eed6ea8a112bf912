package chromakey

import "math"

// MaxDistance RGB 空间两点的最大欧氏距离 sqrt(3*255²) ≈ 441.67，
// tolerance 大于它时所有像素都会命中
var MaxDistance = math.Sqrt(3 * 255 * 255)

// ToleranceFromPercent 0–100 百分比映射到 0–255
func ToleranceFromPercent(pct float64) float64 {
	return pct / 100 * 255
}

// ToleranceFromDistancePercent 0–100 百分比映射到 0–MaxDistance
func ToleranceFromDistancePercent(pct float64) float64 {
	return pct / 100 * MaxDistance
}
