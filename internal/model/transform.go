package model

import "math"

// PriceDecimals is the number of decimal places prices are reported with
const PriceDecimals = 2

// LogTransform maps a non-negative price into the space the regressor is
// trained in
func LogTransform(price float64) float64 {
	return math.Log1p(price)
}

// InverseLogTransform maps a regressor output back to a price. Outputs below
// zero in log space would give a negative price and are clamped to zero.
func InverseLogTransform(x float64) float64 {
	p := math.Expm1(x)
	if p < 0 {
		return 0
	}
	return p
}

// RoundPrice rounds half away from zero to the given number of decimals
func RoundPrice(price float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(price*scale) / scale
}
