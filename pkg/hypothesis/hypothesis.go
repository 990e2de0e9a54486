// Package hypothesis defines candidate hypotheses about a dataset and the
// deterministic verifier that checks them against the data.
package hypothesis

import (
	"fmt"
	"math"

	"github.com/datascope/datascope/pkg/dataset"
)

// Hypothesis kinds.
const (
	KindMissingness       = "missingness"
	KindCategoryDominance = "category_dominance"
	KindCorrelation       = "correlation"
)

// MaxVerified bounds how many hypotheses the verifier considers; the rest are
// silently ignored.
const MaxVerified = 10

const minCorrelationRows = 10

// Hypothesis is one candidate claim about the dataset. Col carries the target
// for single-column kinds; X and Y carry the pair for correlation.
type Hypothesis struct {
	Kind      string `json:"kind"`
	Statement string `json:"statement"`
	Col       string `json:"col,omitempty"`
	X         string `json:"x,omitempty"`
	Y         string `json:"y,omitempty"`
}

// Verified is a hypothesis with its verification outcome attached.
type Verified struct {
	Hypothesis
	IsVerified  bool                   `json:"verified"`
	Evidence    map[string]interface{} `json:"evidence"`
	VerifyError string                 `json:"verify_error,omitempty"`
}

// Verify checks up to MaxVerified hypotheses against the dataset. Each
// hypothesis is verified independently; a panic while checking one is attached
// as its verify_error and the rest proceed. The dataset is never mutated.
func Verify(ds *dataset.Dataset, hypotheses []Hypothesis) []Verified {
	if len(hypotheses) > MaxVerified {
		hypotheses = hypotheses[:MaxVerified]
	}
	out := make([]Verified, 0, len(hypotheses))
	for _, h := range hypotheses {
		out = append(out, verifyOne(ds, h))
	}
	return out
}

func verifyOne(ds *dataset.Dataset, h Hypothesis) (v Verified) {
	v = Verified{Hypothesis: h}
	defer func() {
		if r := recover(); r != nil {
			v.IsVerified = false
			v.Evidence = nil
			v.VerifyError = fmt.Sprintf("%v", r)
		}
	}()

	switch h.Kind {
	case KindMissingness:
		if c := ds.Column(h.Col); c != nil {
			rate := 0.0
			if c.Len() > 0 {
				rate = float64(c.MissingCount()) / float64(c.Len())
			}
			v.IsVerified = true
			v.Evidence = map[string]interface{}{"missing_rate": rate}
		}

	case KindCategoryDominance:
		if c := ds.Column(h.Col); c != nil {
			counts := c.ValueCounts()
			if len(counts) > 0 {
				total := 0
				for _, vc := range counts {
					total += vc.Count
				}
				if total < 1 {
					total = 1
				}
				v.IsVerified = true
				v.Evidence = map[string]interface{}{
					"top_value": counts[0].Value,
					"top_share": float64(counts[0].Count) / float64(total),
				}
			}
		}

	case KindCorrelation:
		cx, cy := ds.Column(h.X), ds.Column(h.Y)
		if cx != nil && cy != nil {
			corr, n := pairedPearson(cx, cy)
			if n >= minCorrelationRows {
				v.IsVerified = true
				v.Evidence = map[string]interface{}{"pearson_corr": corr, "n": n}
			}
		}
	}
	return v
}

// pairedPearson computes the Pearson coefficient over rows where both columns
// hold a numeric value, returning the paired sample size.
func pairedPearson(a, b *dataset.Column) (float64, int) {
	var xs, ys []float64
	rows := a.Len()
	if b.Len() < rows {
		rows = b.Len()
	}
	for i := 0; i < rows; i++ {
		x, okx := a.Float64(i)
		y, oky := b.Float64(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	n := len(xs)
	if n < 2 {
		return 0, n
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, n
	}
	return sxy / math.Sqrt(sxx*syy), n
}
