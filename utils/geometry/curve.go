package geometry

import (
	"github.com/paulmach/orb"
)

const (
	// MinSegmentLengthSq 折线段长度平方的下限，低于该值的线段不更新朝向
	MinSegmentLengthSq = 1e-6
)

// SampleCurve 曲线采样
// 功能：将两个端点与弯曲参数转换为有序折线
// 参数：from-起点，to-终点，bend-控制点沿法向的偏移比例（相对于端点距离），segments-折线段数
// 返回：segments+1个点组成的折线，首尾严格等于from与to
// 算法说明：
// 1. bend为0或segments<=1时退化为直线（2个点）
// 2. 控制点 = 中点 + 法向量 * bend * |to-from|
// 3. 按二次贝塞尔曲线均匀采样参数t
func SampleCurve(from, to orb.Point, bend float64, segments int) orb.LineString {
	if bend == 0 || segments <= 1 || from.Equal(to) {
		return orb.LineString{from, to}
	}
	d := Sub(to, from)
	normal := Normalize(orb.Point{-d[1], d[0]})
	control := Add(Lerp(from, to, .5), Scale(normal, bend*Length(d)))

	line := make(orb.LineString, 0, segments+1)
	line = append(line, from)
	for i := 1; i < segments; i++ {
		t := float64(i) / float64(segments)
		a := Lerp(from, control, t)
		b := Lerp(control, to, t)
		line = append(line, Lerp(a, b, t))
	}
	line = append(line, to)
	return line
}

// SegmentHeading 计算折线段的朝向
// 功能：返回线段a->b的方向角与单位方向向量
// 参数：a-线段起点，b-线段终点
// 返回：heading-方向角（弧度），dir-单位方向，ok-线段是否足够长
// 说明：线段长度平方小于MinSegmentLengthSq时ok为false，调用方应保留原朝向
func SegmentHeading(a, b orb.Point) (heading float64, dir orb.Point, ok bool) {
	d := Sub(b, a)
	if LengthSq(d) < MinSegmentLengthSq {
		return 0, orb.Point{}, false
	}
	return Angle(d), Normalize(d), true
}
