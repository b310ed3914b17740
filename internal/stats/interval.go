package stats

import "math"

// DefaultConfidenceLevel is used wherever a caller does not supply one.
const DefaultConfidenceLevel = 0.95

// Interval is a confidence interval over a prediction sample set, clipped
// to the probability range.
type Interval struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Mean     float64 `json:"mean"`
	StdError float64 `json:"std_error"`
}

// ConfidenceInterval computes a Student's t interval around the sample
// mean. Fewer than two samples cannot support an interval, so the full
// probability range with an indecisive mean is returned instead.
func ConfidenceInterval(samples []float64, level float64) Interval {
	if len(samples) < 2 {
		return Interval{Lower: 0, Upper: 1, Mean: 0.5}
	}
	if level <= 0 || level >= 1 {
		level = DefaultConfidenceLevel
	}

	mean := Mean(samples)
	sem := StdError(samples)
	t := TCritical(level, len(samples)-1)
	margin := t * sem

	return Interval{
		Lower:    math.Max(0, mean-margin),
		Upper:    math.Min(1, mean+margin),
		Mean:     mean,
		StdError: sem,
	}
}

// Mean returns the arithmetic mean of samples.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Variance returns the unbiased sample variance.
func Variance(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	mean := Mean(samples)
	sum := 0.0
	for _, s := range samples {
		d := s - mean
		sum += d * d
	}
	return sum / float64(len(samples)-1)
}

// StdDev returns the unbiased sample standard deviation.
func StdDev(samples []float64) float64 {
	return math.Sqrt(Variance(samples))
}

// StdError returns the standard error of the sample mean.
func StdError(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return StdDev(samples) / math.Sqrt(float64(len(samples)))
}

// TCritical returns the two-tailed critical value of Student's t with df
// degrees of freedom, so that the central mass equals level. Uses Hill's
// approximation (ACM 396) with exact forms for df 1 and 2.
func TCritical(level float64, df int) float64 {
	if df < 1 {
		df = 1
	}
	alpha := 1 - level

	switch df {
	case 1:
		return math.Cos(alpha*math.Pi/2) / math.Sin(alpha*math.Pi/2)
	case 2:
		return math.Sqrt(2.0/(alpha*(2.0-alpha)) - 2.0)
	}

	n := float64(df)
	a := 1.0 / (n - 0.5)
	b := 48.0 / (a * a)
	c := ((20700.0*a/b-98.0)*a-16.0)*a + 96.36
	d := ((94.5/(b+c)-3.0)/c + 1.0) * math.Sqrt(a*math.Pi/2.0) * n

	x := d * alpha
	y := math.Pow(x, 2.0/n)

	if y > 0.05+a {
		// Asymptotic expansion around the upper-tail normal quantile.
		x = normalQuantile(1 - alpha*0.5)
		y = x * x
		if df < 5 {
			c += 0.3 * (n - 4.5) * (x + 0.6)
		}
		c = (((0.05*d*x-5.0)*x-7.0)*x-2.0)*x + b + c
		y = (((((0.4*y+6.3)*y+36.0)*y+94.5)/c-y-3.0)/b + 1.0) * x
		y = a * y * y
		if y > 0.002 {
			y = math.Exp(y) - 1.0
		} else {
			y = 0.5*y*y + y
		}
	} else {
		y = ((1.0/(((n+6.0)/(n*y)-0.089*d-0.822)*(n+2.0)*3.0)+0.5/(n+4.0))*y-1.0)*
			(n+1.0)/(n+2.0) + 1.0/y
	}

	return math.Sqrt(n * y)
}

// normalQuantile returns the lower-tail standard normal quantile at p.
func normalQuantile(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
