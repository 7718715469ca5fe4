package analytics

import (
	"fmt"
	"math"
)

// likelyInCacheSize bounds the window searched around the previous hit before falling
// back to a full bisection.
const likelyInCacheSize = 8

// Interp is one-dimensional piecewise linear interpolation of x over the sample points
// (xp, fp). It returns fp[0] left of xp[0] and fp[len-1] right of xp[len-1].
//
// xp is expected to be increasing but this is not checked; for non-monotone xp the
// result is whatever the bisection lands on, identically to numpy.interp.
func Interp(x float64, xp, fp []float64) (float64, error) {
	if len(xp) == 0 {
		return 0, fmt.Errorf("interp: no sample points")
	}
	if len(xp) != len(fp) {
		return 0, fmt.Errorf("interp: xp and fp lengths differ (%d != %d)", len(xp), len(fp))
	}

	left, right := fp[0], fp[len(fp)-1]

	if len(xp) == 1 {
		switch {
		case x < xp[0]:
			return left, nil
		case x > xp[0]:
			return right, nil
		default:
			return fp[0], nil
		}
	}

	if math.IsNaN(x) {
		return x, nil
	}

	j := searchWithGuess(x, xp, 0)
	switch {
	case j == -1:
		return left, nil
	case j == len(xp):
		return right, nil
	case j == len(xp)-1:
		return fp[j], nil
	case xp[j] == x:
		// exact hit, avoids inf*0 in the slope term
		return fp[j], nil
	}

	slope := (fp[j+1] - fp[j]) / (xp[j+1] - xp[j])
	result := slope*(x-xp[j]) + fp[j]
	if math.IsNaN(result) {
		result = slope*(x-xp[j+1]) + fp[j+1]
		if math.IsNaN(result) && fp[j] == fp[j+1] {
			result = fp[j]
		}
	}
	return result, nil
}

// searchWithGuess returns i such that arr[i] <= key < arr[i+1], -1 when key < arr[0]
// and len(arr) when key > arr[len-1]. guess is the expected index.
func searchWithGuess(key float64, arr []float64, guess int) int {
	n := len(arr)
	imin, imax := 0, n

	if key > arr[n-1] {
		return n
	} else if key < arr[0] {
		return -1
	}

	if n <= 4 {
		i := 1
		for i < n && key >= arr[i] {
			i++
		}
		return i - 1
	}

	if guess > n-3 {
		guess = n - 3
	}
	if guess < 1 {
		guess = 1
	}

	if key < arr[guess] {
		if key < arr[guess-1] {
			imax = guess - 1
			if guess > likelyInCacheSize && key >= arr[guess-likelyInCacheSize] {
				imin = guess - likelyInCacheSize
			}
		} else {
			return guess - 1
		}
	} else {
		if key < arr[guess+1] {
			return guess
		} else if key < arr[guess+2] {
			return guess + 1
		}
		imin = guess + 2
		if guess < n-likelyInCacheSize-1 && key < arr[guess+likelyInCacheSize] {
			imax = guess + likelyInCacheSize
		}
	}

	for imin < imax {
		imid := imin + (imax-imin)>>1
		if key >= arr[imid] {
			imin = imid + 1
		} else {
			imax = imid
		}
	}
	return imin - 1
}
