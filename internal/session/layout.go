package session

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/brawl-replay/internal/vec"
)

const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество октав

	goldenAngle = 2.39996322972865332 // π(3-√5)
)

// SpawnLayout детерминированная последовательность точек спауна на арене.
// Точка i зависит только от сида и i: спираль с золотым углом,
// радиус и угол смещаются шумом Перлина.
type SpawnLayout struct {
	noise  *perlin.Perlin
	radius float64
	index  int
}

// NewSpawnLayout создаёт раскладку арены радиуса radius
func NewSpawnLayout(seed int64, radius float64) *SpawnLayout {
	if radius <= 0 {
		radius = 8
	}
	return &SpawnLayout{
		noise:  perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
		radius: radius,
	}
}

// noise01 значение шума в диапазоне [0,1]
func (l *SpawnLayout) noise01(x, y float64) float64 {
	return (l.noise.Noise2D(x, y) + 1.0) / 2.0
}

// Point i-я точка спауна. Локальный игрок стоит в центре, точки начинаются с кольца.
func (l *SpawnLayout) Point(i int) vec.Vec3 {
	// Шум Перлина равен нулю в целых узлах решётки
	fx := float64(i)*0.37 + 0.5
	r := l.radius * (0.45 + 0.5*l.noise01(fx, 0.25))
	angle := float64(i)*goldenAngle + (l.noise01(0.75, fx)-0.5)*math.Pi/4
	return vec.Vec3{X: math.Cos(angle) * r, Z: math.Sin(angle) * r}
}

// Next возвращает следующую точку и сдвигает индекс
func (l *SpawnLayout) Next() vec.Vec3 {
	p := l.Point(l.index)
	l.index++
	return p
}

// Skip сдвигает индекс без вычисления точки (при воспроизведении спауна)
func (l *SpawnLayout) Skip() { l.index++ }

// Reset возвращает индекс в начало
func (l *SpawnLayout) Reset() { l.index = 0 }

// Index номер следующей точки
func (l *SpawnLayout) Index() int { return l.index }

// LocalSpawn точка появления локального игрока
func (l *SpawnLayout) LocalSpawn() vec.Vec3 { return vec.Zero3 }

// Radius радиус арены
func (l *SpawnLayout) Radius() float64 { return l.radius }
