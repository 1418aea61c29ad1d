package forecast

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// SeasonalPeriod is the seasonal cycle length for monthly energy data.
const SeasonalPeriod = 12

// arModel is an autoregressive model on an explicit lag set, with an
// intercept, estimated by least squares. Seasonal structure enters through
// the lag at SeasonalPeriod.
type arModel struct {
	lags []int
	coef []float64 // intercept first, then one coefficient per lag
	aicc float64
	mean float64 // mean of usable targets, substituted for out-of-range lags
	rows int
}

// candidateLagSets enumerates the lag sets searched during model selection.
// Seasonal candidates are offered only when at least two full cycles of
// usable history exist.
func candidateLagSets(observed int) [][]int {
	sets := [][]int{{1}, {1, 2}, {1, 2, 3}}
	if observed >= 2*SeasonalPeriod {
		sets = append(sets,
			[]int{1, SeasonalPeriod},
			[]int{1, 2, SeasonalPeriod},
			[]int{1, 2, 3, SeasonalPeriod},
		)
	}
	return sets
}

// fitAR estimates an AR model on the given lag set. Positions where the
// target or any required lag is absent contribute no regression row, which
// is what lets the fit tolerate interior holes.
func fitAR(values []float64, present []bool, lags []int) (*arModel, error) {
	maxLag := 0
	for _, l := range lags {
		if l > maxLag {
			maxLag = l
		}
	}

	var rows []int
	for t := maxLag; t < len(values); t++ {
		if !present[t] {
			continue
		}
		usable := true
		for _, l := range lags {
			if !present[t-l] {
				usable = false
				break
			}
		}
		if usable {
			rows = append(rows, t)
		}
	}

	k := len(lags) + 1
	if len(rows) < k+8 {
		return nil, fmt.Errorf("%w: %d rows for %d parameters", errTooFewRows, len(rows), k)
	}

	n := len(rows)
	x := mat.NewDense(n, k, nil)
	y := mat.NewDense(n, 1, nil)
	var mean float64
	for i, t := range rows {
		x.Set(i, 0, 1)
		for j, l := range lags {
			x.Set(i, j+1, values[t-l])
		}
		y.Set(i, 0, values[t])
		mean += values[t]
	}
	mean /= float64(n)

	var beta mat.Dense
	var qr mat.QR
	qr.Factorize(x)
	if err := qr.SolveTo(&beta, false, y); err != nil {
		// Singular or badly conditioned design: minimum-norm solution via SVD.
		var svd mat.SVD
		if ok := svd.Factorize(x, mat.SVDThin); !ok {
			return nil, fmt.Errorf("forecast: SVD factorization failed after %v", err)
		}
		rank := svd.Rank(1e-12)
		if rank == 0 {
			return nil, fmt.Errorf("forecast: zero-rank design matrix")
		}
		svd.SolveTo(&beta, y, rank)
	}

	coef := make([]float64, k)
	for i := range coef {
		coef[i] = beta.At(i, 0)
	}

	var sse float64
	for _, t := range rows {
		pred := coef[0]
		for j, l := range lags {
			pred += coef[j+1] * values[t-l]
		}
		resid := values[t] - pred
		sse += resid * resid
	}

	model := &arModel{lags: lags, coef: coef, mean: mean, rows: n}
	model.aicc = aicc(sse, n, k)
	if math.IsNaN(model.aicc) {
		return nil, fmt.Errorf("forecast: degenerate fit")
	}
	return model, nil
}

// aicc computes the small-sample corrected Akaike information criterion
// from the residual sum of squares.
func aicc(sse float64, n, k int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	sigma2 := sse / float64(n)
	if sigma2 <= 0 {
		// Perfect fit; strongly favor but keep finite for comparison.
		sigma2 = 1e-12
	}
	logLik := -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)
	aic := -2*logLik + 2*float64(k)
	denom := float64(n - k - 1)
	if denom <= 0 {
		return math.Inf(1)
	}
	return aic + 2*float64(k)*float64(k+1)/denom
}

// selectModel searches the candidate lag sets and returns the fit with the
// lowest corrected AIC. Candidates that fail to fit are skipped; an error is
// returned only when every candidate fails.
func selectModel(values []float64, present []bool, observed int) (*arModel, error) {
	var best *arModel
	var lastErr error
	for _, lags := range candidateLagSets(observed) {
		model, err := fitAR(values, present, lags)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || model.aicc < best.aicc {
			best = model
		}
	}
	if best == nil {
		if lastErr == nil {
			lastErr = errTooFewRows
		}
		return nil, lastErr
	}
	return best, nil
}

// predictAt produces the one-step value for position t, substituting the
// training mean for lags that fall before the calendar start or on a hole.
func (m *arModel) predictAt(values []float64, present []bool, t int) float64 {
	pred := m.coef[0]
	for j, l := range m.lags {
		lagVal := m.mean
		if idx := t - l; idx >= 0 && present[idx] {
			lagVal = values[idx]
		}
		pred += m.coef[j+1] * lagVal
	}
	return pred
}

// describe renders the lag set, e.g. "AR(1,2,12)".
func (m *arModel) describe() string {
	parts := make([]string, len(m.lags))
	for i, l := range m.lags {
		parts[i] = fmt.Sprintf("%d", l)
	}
	return "AR(" + strings.Join(parts, ",") + ")"
}
