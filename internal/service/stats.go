package service

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// pearson computes the Pearson correlation coefficient for two aligned
// series. For a 0/1 activity indicator this is the point-biserial
// coefficient, so activities and continuous metrics share one effect
// scale. Returns ok=false when either side has zero variance.
func pearson(x, y []float64) (float64, bool) {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

// twoSidedP is the two-sided p-value of the correlation under the null
// r=0, via the t transform t = r*sqrt((n-2)/(1-r^2)) with n-2 degrees
// of freedom.
func twoSidedP(r float64, n int) float64 {
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		// Perfect correlation: t diverges.
		return 0
	}
	t := r * math.Sqrt(df/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}

// meanDifference is the mean outcome on indicator days minus the mean
// on the remaining days. Used only for the plain-language template;
// ranking uses the correlation coefficient.
func meanDifference(x, y []float64) float64 {
	var withSum, withoutSum float64
	var withN, withoutN int
	for i, v := range x {
		if v != 0 {
			withSum += y[i]
			withN++
		} else {
			withoutSum += y[i]
			withoutN++
		}
	}
	if withN == 0 || withoutN == 0 {
		return 0
	}
	return withSum/float64(withN) - withoutSum/float64(withoutN)
}
