package rollup

import "math"

// pairwiseBlock is the leaf size below which pairwiseSum unrolls into eight
// running partial sums.
const pairwiseBlock = 128

// pairwiseSum adds xs the way the upstream's column totals do: short runs
// sequentially, blocks of up to 128 through eight interleaved partial sums,
// and longer runs by recursive halving on multiples of eight. The result is
// accumulated onto a +0 identity, so an all-zero column totals +0.
func pairwiseSum(xs []float64) float64 {
	s := pairwise(xs)
	if s == 0 {
		return 0
	}
	return s
}

func pairwise(xs []float64) float64 {
	n := len(xs)
	switch {
	case n < 8:
		res := math.Copysign(0, -1)
		for _, x := range xs {
			res += x
		}
		return res
	case n <= pairwiseBlock:
		var r [8]float64
		copy(r[:], xs[:8])
		i := 8
		for ; i < n-n%8; i += 8 {
			for j := range r {
				r[j] += xs[i+j]
			}
		}
		res := ((r[0] + r[1]) + (r[2] + r[3])) + ((r[4] + r[5]) + (r[6] + r[7]))
		for ; i < n; i++ {
			res += xs[i]
		}
		return res
	default:
		n2 := n / 2
		n2 -= n2 % 8
		return pairwise(xs[:n2]) + pairwise(xs[n2:])
	}
}

// kahan is a compensated running sum, matching the upstream's grouped sums.
type kahan struct {
	sum, comp float64
}

func (k *kahan) add(v float64) {
	y := v - k.comp
	t := k.sum + y
	k.comp = t - k.sum - y
	// An infinite term leaves a NaN compensation; drop it so the sum stays
	// infinite.
	if k.comp != k.comp {
		k.comp = 0
	}
	k.sum = t
}
