package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientData is returned when too few samples are available.
var ErrInsufficientData = errors.New("insufficient data")

// Distribution names a candidate family.
type Distribution string

const (
	Exponential Distribution = "exponential"
	Normal      Distribution = "normal"
	LogNormal   Distribution = "lognormal"
	Gamma       Distribution = "gamma"
	Weibull     Distribution = "weibull"
	Uniform     Distribution = "uniform"
)

// DefaultDistributions lists every supported family.
func DefaultDistributions() []Distribution {
	return []Distribution{Exponential, Normal, LogNormal, Gamma, Weibull, Uniform}
}

// ParseDistribution validates a family name.
func ParseDistribution(s string) (Distribution, error) {
	for _, d := range DefaultDistributions() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown distribution %q", s)
}

type fitted interface {
	LogProb(x float64) float64
	CDF(x float64) float64
}

// FitResult describes one candidate fitted to a sample.
type FitResult struct {
	Distribution  Distribution       `json:"distribution"`
	Params        map[string]float64 `json:"params,omitempty"`
	N             int                `json:"n"`
	LogLikelihood float64            `json:"log_likelihood"`
	AIC           float64            `json:"aic"`
	KS            float64            `json:"ks"`
	Err           error              `json:"-"`
}

// OK reports whether the fit succeeded.
func (r FitResult) OK() bool { return r.Err == nil }

// FitReport holds all candidates, best first by AIC. Failed fits come last.
type FitReport struct {
	N       int         `json:"n"`
	Results []FitResult `json:"results"`
}

// Best returns the candidate with the lowest AIC.
func (r FitReport) Best() (FitResult, bool) {
	if len(r.Results) == 0 || !r.Results[0].OK() {
		return FitResult{}, false
	}
	return r.Results[0], true
}

// Fit fits every candidate to samples. Failures of individual candidates are
// reported in FitResult.Err and do not fail the call.
func Fit(samples []float64, candidates []Distribution) (FitReport, error) {
	x := finite(samples)
	if len(x) < 2 {
		return FitReport{N: len(x)}, fmt.Errorf("%w: %d sample(s)", ErrInsufficientData, len(x))
	}
	if len(candidates) == 0 {
		candidates = DefaultDistributions()
	}
	sort.Float64s(x)
	report := FitReport{N: len(x)}
	for _, c := range candidates {
		report.Results = append(report.Results, fitOne(c, x))
	}
	sort.SliceStable(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.OK() != b.OK() {
			return a.OK()
		}
		return a.AIC < b.AIC
	})
	return report, nil
}

func fitOne(c Distribution, x []float64) FitResult {
	res := FitResult{Distribution: c, N: len(x)}
	dist, params, err := estimate(c, x)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", c, err)
		return res
	}
	ll := 0.0
	for _, v := range x {
		ll += dist.LogProb(v)
	}
	if math.IsNaN(ll) || math.IsInf(ll, 0) {
		res.Err = fmt.Errorf("%s: log-likelihood is not finite", c)
		return res
	}
	res.Params = params
	res.LogLikelihood = ll
	res.AIC = 2*float64(len(params)) - 2*ll
	res.KS = ksStatistic(x, dist)
	return res
}

func estimate(c Distribution, x []float64) (fitted, map[string]float64, error) {
	mean, std := stat.MeanStdDev(x, nil)
	lo, hi := x[0], x[len(x)-1]
	switch c {
	case Exponential:
		if lo < 0 {
			return nil, nil, errors.New("negative samples")
		}
		if mean <= 0 {
			return nil, nil, errors.New("mean must be positive")
		}
		var d distuv.Exponential
		d.Fit(x, nil)
		return d, map[string]float64{"rate": d.Rate}, nil
	case Normal:
		if std <= 0 {
			return nil, nil, errors.New("zero variance")
		}
		d := distuv.Normal{Mu: mean, Sigma: std}
		return d, map[string]float64{"mu": d.Mu, "sigma": d.Sigma}, nil
	case LogNormal:
		if lo <= 0 {
			return nil, nil, errors.New("samples must be positive")
		}
		logs := make([]float64, len(x))
		for i, v := range x {
			logs[i] = math.Log(v)
		}
		mu, sigma := stat.PopMeanStdDev(logs, nil)
		if sigma <= 0 {
			return nil, nil, errors.New("zero variance")
		}
		d := distuv.LogNormal{Mu: mu, Sigma: sigma}
		return d, map[string]float64{"mu": mu, "sigma": sigma}, nil
	case Gamma:
		if lo <= 0 {
			return nil, nil, errors.New("samples must be positive")
		}
		variance := std * std
		if variance <= 0 {
			return nil, nil, errors.New("zero variance")
		}
		d := distuv.Gamma{Alpha: mean * mean / variance, Beta: mean / variance}
		return d, map[string]float64{"shape": d.Alpha, "rate": d.Beta}, nil
	case Weibull:
		if lo <= 0 {
			return nil, nil, errors.New("samples must be positive")
		}
		if std <= 0 {
			return nil, nil, errors.New("zero variance")
		}
		k, lambda, err := weibullMLE(x)
		if err != nil {
			return nil, nil, err
		}
		d := distuv.Weibull{K: k, Lambda: lambda}
		return d, map[string]float64{"shape": k, "scale": lambda}, nil
	case Uniform:
		if hi <= lo {
			return nil, nil, errors.New("zero range")
		}
		d := distuv.Uniform{Min: lo, Max: hi}
		return d, map[string]float64{"min": lo, "max": hi}, nil
	default:
		return nil, nil, fmt.Errorf("unknown distribution %q", c)
	}
}

// weibullMLE solves the shape equation
// sum(x^k ln x)/sum(x^k) - 1/k - mean(ln x) = 0 by bisection.
func weibullMLE(x []float64) (float64, float64, error) {
	logs := make([]float64, len(x))
	for i, v := range x {
		logs[i] = math.Log(v)
	}
	meanLog := stat.Mean(logs, nil)
	maxLog := floats.Max(logs)
	g := func(k float64) float64 {
		var num, den float64
		for _, l := range logs {
			w := math.Exp(k * (l - maxLog))
			num += w * l
			den += w
		}
		return num/den - 1/k - meanLog
	}
	lo, hi := 1e-3, 1e3
	if g(lo) > 0 || g(hi) < 0 {
		return 0, 0, errors.New("weibull shape did not converge")
	}
	for i := 0; i < 200 && hi-lo > 1e-10*hi; i++ {
		mid := (lo + hi) / 2
		if g(mid) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	k := (lo + hi) / 2
	var s float64
	for _, l := range logs {
		s += math.Exp(k * (l - maxLog))
	}
	lambda := math.Exp(maxLog) * math.Pow(s/float64(len(logs)), 1/k)
	return k, lambda, nil
}

// ksStatistic returns the Kolmogorov-Smirnov distance between the sorted
// sample x and the fitted CDF.
func ksStatistic(x []float64, d fitted) float64 {
	n := float64(len(x))
	var dist float64
	for i, v := range x {
		f := d.CDF(v)
		dist = math.Max(dist, math.Max(f-float64(i)/n, float64(i+1)/n-f))
	}
	return dist
}

func finite(samples []float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
