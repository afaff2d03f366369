package value

import "math/big"

var bigTen = big.NewInt(10)

// normalizeDecimal removes trailing mantissa zeros by reducing the scale,
// so that canonically-equal decimals (e.g. 1.50 and 1.5) always compare and
// hash identically (spec §3, §4.A).
func normalizeDecimal(d Decimal) Decimal {
	if d.Mantissa.Sign() == 0 {
		return Decimal{Mantissa: big.NewInt(0), Scale: 0}
	}
	m := new(big.Int).Set(d.Mantissa)
	scale := d.Scale
	for scale > 0 {
		q, r := new(big.Int).QuoRem(m, bigTen, new(big.Int))
		if r.Sign() != 0 {
			break
		}
		m = q
		scale--
	}
	return Decimal{Mantissa: m, Scale: scale}
}

// CompareDecimal compares two normalized decimals by value, independent of
// their (already-normalized) scale.
func CompareDecimal(a, b Decimal) int {
	// bring both to the same scale by multiplying the smaller-scale one
	as, bs := a.Scale, b.Scale
	am, bm := new(big.Int).Set(a.Mantissa), new(big.Int).Set(b.Mantissa)
	for as < bs {
		am.Mul(am, bigTen)
		as++
	}
	for bs < as {
		bm.Mul(bm, bigTen)
		bs++
	}
	return am.Cmp(bm)
}
