// 二维几何工具，基于github.com/paulmach/orb的Point/LineString表示
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Add 向量加法
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

// Sub 向量减法 a-b
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Scale 数乘
func Scale(a orb.Point, k float64) orb.Point {
	return orb.Point{a[0] * k, a[1] * k}
}

// Dot 点积
func Dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// LengthSq 向量模长的平方
func LengthSq(a orb.Point) float64 {
	return Dot(a, a)
}

// Length 向量模长
func Length(a orb.Point) float64 {
	return math.Sqrt(LengthSq(a))
}

// Distance 两点间欧氏距离
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Normalize 单位化
// 功能：返回与a同向的单位向量
// 说明：零向量原样返回，避免产生NaN
func Normalize(a orb.Point) orb.Point {
	l := Length(a)
	if l == 0 {
		return a
	}
	return Scale(a, 1/l)
}

// Angle 向量方向角（弧度，atan2(y, x)，范围(-π, π]）
func Angle(a orb.Point) float64 {
	return math.Atan2(a[1], a[0])
}

// Lerp 线性插值 a+(b-a)*t
func Lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// PolylineLength 折线总长
func PolylineLength(line orb.LineString) float64 {
	return planar.Length(line)
}
