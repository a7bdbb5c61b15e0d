package vec

import "math"

// AffineTransform - аффинное преобразование 3x4 (линейная часть + перенос).
//
//	| m00 m01 m02 m03 |
//	| m10 m11 m12 m13 |
//	| m20 m21 m22 m23 |
type AffineTransform struct {
	m00, m01, m02, m03 float64
	m10, m11, m12, m13 float64
	m20, m21, m22, m23 float64
}

// Identity возвращает тождественное преобразование
func Identity() AffineTransform {
	return AffineTransform{m00: 1, m11: 1, m22: 1}
}

// NewAffineTransform создаёт преобразование из 12 коэффициентов (построчно).
func NewAffineTransform(coefs [12]float64) AffineTransform {
	return AffineTransform{
		m00: coefs[0], m01: coefs[1], m02: coefs[2], m03: coefs[3],
		m10: coefs[4], m11: coefs[5], m12: coefs[6], m13: coefs[7],
		m20: coefs[8], m21: coefs[9], m22: coefs[10], m23: coefs[11],
	}
}

// IsIdentity проверяет, является ли преобразование тождественным
func (t AffineTransform) IsIdentity() bool {
	return t == Identity()
}

// Apply применяет преобразование к вектору
func (t AffineTransform) Apply(v Vec3Float) Vec3Float {
	return Vec3Float{
		X: t.m00*v.X + t.m01*v.Y + t.m02*v.Z + t.m03,
		Y: t.m10*v.X + t.m11*v.Y + t.m12*v.Z + t.m13,
		Z: t.m20*v.X + t.m21*v.Y + t.m22*v.Z + t.m23,
	}
}

// ApplyDirection применяет только линейную часть (образ начала координат вычитается).
func (t AffineTransform) ApplyDirection(v Vec3Float) Vec3Float {
	return t.Apply(v).Sub(t.Apply(Zero3))
}

func (t AffineTransform) determinant() float64 {
	return t.m00*(t.m11*t.m22-t.m12*t.m21) -
		t.m01*(t.m10*t.m22-t.m12*t.m20) +
		t.m02*(t.m10*t.m21-t.m11*t.m20)
}

// Inverse возвращает обратное преобразование. Для вырожденной матрицы
// возвращается тождественное и false.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.determinant()
	if det == 0 || math.IsNaN(det) {
		return Identity(), false
	}
	inv := AffineTransform{
		m00: (t.m11*t.m22 - t.m21*t.m12) / det,
		m01: (t.m21*t.m02 - t.m01*t.m22) / det,
		m02: (t.m01*t.m12 - t.m11*t.m02) / det,
		m10: (t.m20*t.m12 - t.m10*t.m22) / det,
		m11: (t.m00*t.m22 - t.m20*t.m02) / det,
		m12: (t.m10*t.m02 - t.m00*t.m12) / det,
		m20: (t.m10*t.m21 - t.m20*t.m11) / det,
		m21: (t.m20*t.m01 - t.m00*t.m21) / det,
		m22: (t.m00*t.m11 - t.m10*t.m01) / det,
	}
	inv.m03 = -(inv.m00*t.m03 + inv.m01*t.m13 + inv.m02*t.m23)
	inv.m13 = -(inv.m10*t.m03 + inv.m11*t.m13 + inv.m12*t.m23)
	inv.m23 = -(inv.m20*t.m03 + inv.m21*t.m13 + inv.m22*t.m23)
	return inv, true
}

// Concatenate возвращает t·that: сначала применяется that, затем t.
func (t AffineTransform) Concatenate(that AffineTransform) AffineTransform {
	return AffineTransform{
		m00: t.m00*that.m00 + t.m01*that.m10 + t.m02*that.m20,
		m01: t.m00*that.m01 + t.m01*that.m11 + t.m02*that.m21,
		m02: t.m00*that.m02 + t.m01*that.m12 + t.m02*that.m22,
		m03: t.m00*that.m03 + t.m01*that.m13 + t.m02*that.m23 + t.m03,
		m10: t.m10*that.m00 + t.m11*that.m10 + t.m12*that.m20,
		m11: t.m10*that.m01 + t.m11*that.m11 + t.m12*that.m21,
		m12: t.m10*that.m02 + t.m11*that.m12 + t.m12*that.m22,
		m13: t.m10*that.m03 + t.m11*that.m13 + t.m12*that.m23 + t.m13,
		m20: t.m20*that.m00 + t.m21*that.m10 + t.m22*that.m20,
		m21: t.m20*that.m01 + t.m21*that.m11 + t.m22*that.m21,
		m22: t.m20*that.m02 + t.m21*that.m12 + t.m22*that.m22,
		m23: t.m20*that.m03 + t.m21*that.m13 + t.m22*that.m23 + t.m23,
	}
}

// Combine возвращает преобразование «сначала t, затем next».
func (t AffineTransform) Combine(next AffineTransform) AffineTransform {
	return next.Concatenate(t)
}

// Translate добавляет перенос
func (t AffineTransform) Translate(x, y, z float64) AffineTransform {
	return t.Combine(AffineTransform{m00: 1, m11: 1, m22: 1, m03: x, m13: y, m23: z})
}

// Scale добавляет масштабирование по осям (отрицательный коэффициент - отражение)
func (t AffineTransform) Scale(x, y, z float64) AffineTransform {
	return t.Combine(AffineTransform{m00: x, m11: y, m22: z})
}

// RotateX добавляет поворот вокруг оси X на угол в градусах
func (t AffineTransform) RotateX(degrees float64) AffineTransform {
	c, s := cosDeg(degrees), sinDeg(degrees)
	return t.Combine(AffineTransform{
		m00: 1,
		m11: c, m12: -s,
		m21: s, m22: c,
	})
}

// RotateY добавляет поворот вокруг вертикальной оси на угол в градусах
func (t AffineTransform) RotateY(degrees float64) AffineTransform {
	c, s := cosDeg(degrees), sinDeg(degrees)
	return t.Combine(AffineTransform{
		m00: c, m02: -s,
		m11: 1,
		m20: s, m22: c,
	})
}

// RotateZ добавляет поворот вокруг оси Z на угол в градусах
func (t AffineTransform) RotateZ(degrees float64) AffineTransform {
	c, s := cosDeg(degrees), sinDeg(degrees)
	return t.Combine(AffineTransform{
		m00: c, m01: -s,
		m10: s, m11: c,
		m22: 1,
	})
}

// cosDeg и sinDeg точны на углах, кратных 90°, чтобы повороты на четверть
// оборота давали целочисленную матрицу.
func cosDeg(degrees float64) float64 {
	switch normalizeDegrees(degrees) {
	case 0:
		return 1
	case 90, 270:
		return 0
	case 180:
		return -1
	}
	return math.Cos(degrees * math.Pi / 180)
}

func sinDeg(degrees float64) float64 {
	switch normalizeDegrees(degrees) {
	case 0, 180:
		return 0
	case 90:
		return 1
	case 270:
		return -1
	}
	return math.Sin(degrees * math.Pi / 180)
}

func normalizeDegrees(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return d
}
