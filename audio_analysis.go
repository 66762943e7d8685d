// audio_analysis.go - onset detection, level measurement, and signal
// comparison over rendered PCM buffers.
//
// Grounded on original_source/tests/audio_verification.rs's
// detect_onset_times (windowed energy, adaptive mean+2*stddev threshold,
// minimum inter-onset distance) and original_source/tests/
// test_sample_accuracy.rs's compare_signals/find_best_alignment (Pearson
// correlation between mean-centered signals, searched over a bounded
// offset range for the best alignment). spec.md §8's end-to-end scenarios
// are expressed directly against these functions in audio_e2e_test.go.

package phonon

import "math"

// OnsetTimes returns, in seconds from the start of signal, the times at
// which energy rises sharply above an adaptive threshold: 10ms analysis
// windows hopped at a quarter window, a threshold of mean+2*stddev over
// the whole signal's window energies, a rising edge gated on energy
// exceeding both the threshold and 1.5x the previous window's energy, a
// re-arm only after energy falls back under 80% of threshold, and a 50ms
// minimum distance between accepted onsets.
func OnsetTimes(signal []float32, sampleRate int) []float64 {
	windowSize := sampleRate / 100
	if windowSize < 64 {
		windowSize = 64
	}
	hopSize := windowSize / 4
	if hopSize < 1 {
		hopSize = 1
	}

	type energyPoint struct {
		idx    int
		energy float64
	}
	var energies []energyPoint
	for i := 0; i+windowSize < len(signal); i += hopSize {
		window := signal[i : i+windowSize]
		sum := 0.0
		for _, x := range window {
			sum += float64(x) * float64(x)
		}
		energies = append(energies, energyPoint{idx: i, energy: sum / float64(windowSize)})
	}
	if len(energies) == 0 {
		return nil
	}

	mean := 0.0
	for _, e := range energies {
		mean += e.energy
	}
	mean /= float64(len(energies))

	variance := 0.0
	for _, e := range energies {
		d := e.energy - mean
		variance += d * d
	}
	variance /= float64(len(energies))
	threshold := mean + math.Sqrt(variance)*2.0

	minOnsetDistance := sampleRate / 20
	var onsets []energyPoint
	inOnset := false
	for i := 1; i < len(energies); i++ {
		energy := energies[i].energy
		prev := energies[i-1].energy
		idx := energies[i].idx
		switch {
		case energy > threshold && energy > prev*1.5 && !inOnset:
			if len(onsets) == 0 || idx-onsets[len(onsets)-1].idx > minOnsetDistance {
				onsets = append(onsets, energyPoint{idx: idx, energy: energy})
				inOnset = true
			}
		case energy < threshold*0.8:
			inOnset = false
		}
	}

	times := make([]float64, len(onsets))
	for i, o := range onsets {
		times[i] = float64(o.idx) / float64(sampleRate)
	}
	return times
}

// RMS returns the root-mean-square level of signal.
func RMS(signal []float32) float64 {
	if len(signal) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range signal {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum / float64(len(signal)))
}

// Peak returns the largest absolute sample value in signal.
func Peak(signal []float32) float64 {
	peak := 0.0
	for _, x := range signal {
		if a := math.Abs(float64(x)); a > peak {
			peak = a
		}
	}
	return peak
}

// SignalComparison reports similarity metrics between two equal-length
// signals.
type SignalComparison struct {
	Correlation   float64 // 1.0 = identical, 0.0 = uncorrelated
	RMSDifference float64
	MaxDifference float64
	SNRdB         float64
}

// CompareSignals computes Pearson correlation plus difference metrics
// between reference and test over their shared length.
func CompareSignals(reference, test []float32) SignalComparison {
	n := len(reference)
	if len(test) < n {
		n = len(test)
	}
	if n == 0 {
		return SignalComparison{
			Correlation:   0,
			RMSDifference: math.MaxFloat64,
			MaxDifference: math.MaxFloat64,
			SNRdB:         math.Inf(-1),
		}
	}

	refMean, testMean := 0.0, 0.0
	for i := 0; i < n; i++ {
		refMean += float64(reference[i])
		testMean += float64(test[i])
	}
	refMean /= float64(n)
	testMean /= float64(n)

	var numerator, refVar, testVar float64
	for i := 0; i < n; i++ {
		rc := float64(reference[i]) - refMean
		tc := float64(test[i]) - testMean
		numerator += rc * tc
		refVar += rc * rc
		testVar += tc * tc
	}
	correlation := 0.0
	if refVar > 0 && testVar > 0 {
		correlation = numerator / (math.Sqrt(refVar) * math.Sqrt(testVar))
	}

	var sumSqDiff, sumSqRef, maxDiff float64
	for i := 0; i < n; i++ {
		diff := math.Abs(float64(reference[i]) - float64(test[i]))
		sumSqDiff += diff * diff
		sumSqRef += float64(reference[i]) * float64(reference[i])
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	rmsDiff := math.Sqrt(sumSqDiff / float64(n))
	rmsSignal := math.Sqrt(sumSqRef / float64(n))

	snr := math.Inf(1)
	if rmsDiff > 0 {
		snr = 20 * math.Log10(rmsSignal/rmsDiff)
	}

	return SignalComparison{
		Correlation:   correlation,
		RMSDifference: rmsDiff,
		MaxDifference: maxDiff,
		SNRdB:         snr,
	}
}

// FindBestAlignment slides test against reference over every offset in
// [-maxOffset,maxOffset] samples, and returns the offset and correlation
// of the best-overlapping comparison (each candidate needs at least 100
// overlapping samples to be considered).
func FindBestAlignment(reference, test []float32, maxOffset int) (int, float64) {
	bestOffset := 0
	bestCorr := math.Inf(-1)

	for offset := -maxOffset; offset <= maxOffset; offset++ {
		var refSlice, testSlice []float32
		if offset >= 0 {
			if offset >= len(test) {
				continue
			}
			refSlice = reference
			testSlice = test[offset:]
		} else {
			off := -offset
			if off >= len(reference) {
				continue
			}
			refSlice = reference[off:]
			testSlice = test
		}
		n := len(refSlice)
		if len(testSlice) < n {
			n = len(testSlice)
		}
		if n < 100 {
			continue
		}
		cmp := CompareSignals(refSlice[:n], testSlice[:n])
		if cmp.Correlation > bestCorr {
			bestCorr = cmp.Correlation
			bestOffset = offset
		}
	}
	return bestOffset, bestCorr
}
