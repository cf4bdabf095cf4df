package vec

import "math"

// Quat кватернион поворота
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity поворот без вращения
var Identity = Quat{W: 1}

// YawQuat строит поворот вокруг оси Y на угол в градусах
func YawQuat(degrees float64) Quat {
	half := degrees * math.Pi / 360
	return Quat{Y: math.Sin(half), W: math.Cos(half)}
}

// LookRotation строит поворот вокруг Y, смотрящий вдоль dir в плоскости XZ.
// Нулевое направление даёт Identity.
func LookRotation(dir Vec3) Quat {
	if dir.X == 0 && dir.Z == 0 {
		return Identity
	}
	return YawQuat(math.Atan2(dir.X, dir.Z) * 180 / math.Pi)
}

// Mul композиция поворотов q*o
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Normalized возвращает единичный кватернион
func (q Quat) Normalized() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return Identity
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Yaw возвращает угол поворота вокруг Y в градусах
func (q Quat) Yaw() float64 {
	siny := 2 * (q.W*q.Y + q.Z*q.X)
	cosy := 1 - 2*(q.X*q.X+q.Y*q.Y)
	return math.Atan2(siny, cosy) * 180 / math.Pi
}

// Forward возвращает направление "вперёд" (ось +Z) после поворота
func (q Quat) Forward() Vec3 {
	return Vec3{
		X: 2 * (q.X*q.Z + q.W*q.Y),
		Y: 2 * (q.Y*q.Z - q.W*q.X),
		Z: 1 - 2*(q.X*q.X+q.Y*q.Y),
	}
}
