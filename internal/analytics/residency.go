package analytics

import (
	"regexp"
	"strconv"

	"github.com/tphakala/tagtrack/internal/detection"
)

// DefaultResidencyPattern matches the Halifax line receivers.
const DefaultResidencyPattern = "HFX"

// CompilePattern compiles a case-insensitive station pattern.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, patternError(pattern, err)
	}
	return re, nil
}

// Residency returns the percentage of detections in track whose station matches
// pattern, rounded to one decimal.
func Residency(track []detection.Record, pattern string) (float64, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return 0, err
	}
	if len(track) == 0 {
		return 0, emptyTrackError("residency")
	}

	matches := 0
	for i := range track {
		if re.MatchString(track[i].StationID) {
			matches++
		}
	}
	return roundDecimals(float64(matches)/float64(len(track))*100, 1), nil
}

// roundDecimals rounds the exact binary value of v to the given number of decimals,
// ties to even. Scaling by a power of ten first would round twice.
func roundDecimals(v float64, decimals int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return r
}
