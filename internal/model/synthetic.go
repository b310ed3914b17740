package model

import (
	"math"
	"math/rand"

	"github.com/zcredlabs/zscore/internal/features"
)

const (
	// DefaultSyntheticSamples is the bootstrap corpus size used when no
	// labelled repayment data is available yet.
	DefaultSyntheticSamples = 1000

	// DefaultSeed keeps bootstrap training reproducible across restarts.
	DefaultSeed = 42
)

// Synthesize generates n labelled applicant vectors from a seeded
// generative model of the serviceable population. Trust-linked columns
// share a per-applicant latent trust draw so the repayment label is
// learnable; the label is sampled from a default probability built from
// the trust, payment and stability columns.
func Synthesize(n int, seed int64) ([]features.Vector, []int) {
	if n <= 0 {
		n = DefaultSyntheticSamples
	}
	rng := rand.New(rand.NewSource(seed))

	X := make([]features.Vector, n)
	y := make([]int, n)

	for s := 0; s < n; s++ {
		base := betaSample(rng, 2, 3)

		var v features.Vector
		v[features.IdxAge] = rng.NormFloat64()*0.15 + 0.3
		v[features.IdxGenderFemale] = bernoulli(rng, 0.52)
		v[features.IdxIncome] = math.Exp(rng.NormFloat64()*0.5 - 1)
		v[features.IdxBehavioralScore] = base + rng.NormFloat64()*0.1
		v[features.IdxSocialScore] = base + rng.NormFloat64()*0.1
		v[features.IdxDigitalScore] = base + rng.NormFloat64()*0.1
		v[features.IdxOverallTrustScore] = (v[features.IdxBehavioralScore] +
			v[features.IdxSocialScore] + v[features.IdxDigitalScore]) / 3
		v[features.IdxOnTimeRatio] = clip01(base + rng.NormFloat64()*0.2)
		v[features.IdxAvgAmount] = rng.ExpFloat64() * 0.3
		v[features.IdxCommunityRating] = clip01(base + rng.NormFloat64()*0.15)
		v[features.IdxEndorsements] = float64(poisson(rng, 5*base)) / 10
		v[features.IdxTransactionRegularity] = clip01(base + rng.NormFloat64()*0.2)
		v[features.IdxDeviceStability] = clip01(rng.NormFloat64()*0.2 + 0.7)
		v[features.IdxZCredits] = rng.ExpFloat64() * 0.2

		for i := range v {
			v[i] = clip01(v[i])
		}

		pDefault := 1 - (0.3*v[features.IdxOverallTrustScore] +
			0.25*v[features.IdxOnTimeRatio] +
			0.15*v[features.IdxCommunityRating] +
			0.1*v[features.IdxIncome] +
			0.1*v[features.IdxTransactionRegularity] +
			0.1*v[features.IdxDeviceStability])
		pDefault = math.Min(math.Max(pDefault, 0.05), 0.95)

		if rng.Float64() < 1-pDefault {
			y[s] = 1
		}
		X[s] = v
	}

	return X, y
}

func clip01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func bernoulli(rng *rand.Rand, p float64) float64 {
	if rng.Float64() < p {
		return 1
	}
	return 0
}

// gammaSample draws from Gamma(shape, 1) using the Marsaglia-Tsang
// squeeze method, boosted for shape < 1.
func gammaSample(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		return gammaSample(rng, shape+1) * math.Pow(rng.Float64(), 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

func betaSample(rng *rand.Rand, a, b float64) float64 {
	ga := gammaSample(rng, a)
	gb := gammaSample(rng, b)
	if ga+gb == 0 {
		return 0.5
	}
	return ga / (ga + gb)
}

// poisson draws a Poisson count by Knuth's product method. Fine for the
// small rates used here.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	threshold := math.Exp(-lambda)
	k, p := 0, 1.0
	for p > threshold {
		k++
		p *= rng.Float64()
	}
	return k - 1
}
