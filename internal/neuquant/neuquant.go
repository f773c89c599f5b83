// Package neuquant implements the NeuQuant neural-net color quantizer
// (Anthony Dekker, 1994) used to reduce a frame to a 256-entry palette.
//
// A self-organizing map of 256 neurons is trained on a deterministic,
// prime-strided sample of the frame's pixels. A frequency "conscience"
// keeps any single neuron from absorbing every match. After training the
// network is sorted on green and indexed so Map can run a pruned
// bidirectional search instead of a full scan.
//
// Identical input always yields an identical palette: there is no
// randomness anywhere in training.
package neuquant

import (
	"image/color"
	"math"
)

const (
	netSize   = 256 // number of colors used
	maxNetPos = netSize - 1

	// Strides over the pixel buffer. The first one that does not divide
	// the buffer length is used, so sampling visits pixels in a fixed
	// pseudo-random order.
	prime1 = 499
	prime2 = 491
	prime3 = 487
	prime4 = 503

	minPictureBytes = 3 * prime4

	netBiasShift = 4   // bias for color values
	nCycles      = 100 // learning cycles

	// Frequency and bias.
	intBiasShift = 16
	intBias      = 1 << intBiasShift
	gammaShift   = 10
	betaShift    = 10
	beta         = intBias >> betaShift // 1/1024
	betaGamma    = intBias << (gammaShift - betaShift)

	// Neighbourhood radius.
	initRad         = netSize >> 3
	radiusBiasShift = 6
	radiusBias      = 1 << radiusBiasShift
	initRadius      = initRad * radiusBias
	radiusDec       = 30

	// Learning rate.
	alphaBiasShift = 10
	initAlpha      = 1 << alphaBiasShift
	alphaDec       = 30

	radBiasShift   = 8
	radBias        = 1 << radBiasShift
	alphaRadBShift = alphaBiasShift + radBiasShift
	alphaRadBias   = 1 << alphaRadBShift
)

// MinSampleFactor and MaxSampleFactor bound the sampling factor. 1 trains
// on every pixel; 30 trains on roughly one pixel in thirty.
const (
	MinSampleFactor = 1
	MaxSampleFactor = 30
)

type neuron struct {
	r, g, b float64
}

type entry struct {
	r, g, b int
}

// Quantizer is a trained network. It is safe for concurrent Map calls
// once Learn has returned.
type Quantizer struct {
	net      [netSize]entry // sorted by g
	netIndex [256]int       // green value -> start position in net
}

// trainer holds the scratch state of one training pass.
type trainer struct {
	pix          []byte
	sampleFactor int

	network  [netSize]neuron
	bias     [netSize]int32
	freq     [netSize]int32
	radPower [initRad]int32
}

// Learn trains a network on pix, interleaved R,G,B bytes, and returns the
// resulting quantizer. sampleFactor is clamped to [MinSampleFactor,
// MaxSampleFactor]. pix must hold at least one pixel.
func Learn(pix []byte, sampleFactor int) *Quantizer {
	t := &trainer{pix: pix[:len(pix)/3*3], sampleFactor: clampSample(sampleFactor)}
	for i := range t.network {
		v := float64(i<<(netBiasShift+8)) / netSize
		t.network[i] = neuron{v, v, v}
		t.freq[i] = intBias / netSize
	}
	t.learn()

	q := &Quantizer{}
	for i, n := range t.network {
		q.net[i] = entry{
			r: int(n.r) >> netBiasShift,
			g: int(n.g) >> netBiasShift,
			b: int(n.b) >> netBiasShift,
		}
	}
	q.buildIndex()
	return q
}

func clampSample(f int) int {
	if f < MinSampleFactor {
		return MinSampleFactor
	}
	if f > MaxSampleFactor {
		return MaxSampleFactor
	}
	return f
}

// SamplePixels returns how many pixels training visits for a buffer of
// n bytes at the given factor.
func SamplePixels(n, sampleFactor int) int {
	f := clampSample(sampleFactor)
	if n < minPictureBytes {
		f = 1
	}
	return n / (3 * f)
}

func (t *trainer) learn() {
	length := len(t.pix)
	if length < minPictureBytes {
		t.sampleFactor = 1
	}
	samplePixels := length / (3 * t.sampleFactor)
	delta := samplePixels / nCycles
	if delta == 0 {
		delta = 1
	}
	alpha := int32(initAlpha)
	radius := int32(initRadius)
	rad := radius >> radiusBiasShift
	if rad <= 1 {
		rad = 0
	}
	t.setRadPower(rad, alpha)

	var step int
	switch {
	case length < minPictureBytes:
		step = 3
	case length%prime1 != 0:
		step = 3 * prime1
	case length%prime2 != 0:
		step = 3 * prime2
	case length%prime3 != 0:
		step = 3 * prime3
	default:
		step = 3 * prime4
	}

	pos := 0
	for i := 1; i <= samplePixels; i++ {
		r := float64(int(t.pix[pos]) << netBiasShift)
		g := float64(int(t.pix[pos+1]) << netBiasShift)
		b := float64(int(t.pix[pos+2]) << netBiasShift)

		j := t.contest(r, g, b)
		t.alterSingle(alpha, j, r, g, b)
		if rad != 0 {
			t.alterNeigh(int(rad), j, r, g, b)
		}

		pos += step
		if pos >= length {
			pos -= length
		}

		if i%delta == 0 {
			alpha -= alpha / alphaDec
			radius -= radius / radiusDec
			rad = radius >> radiusBiasShift
			if rad <= 1 {
				rad = 0
			}
			t.setRadPower(rad, alpha)
		}
	}
}

func (t *trainer) setRadPower(rad, alpha int32) {
	rr := float64(rad * rad)
	for i := int32(0); i < rad; i++ {
		t.radPower[i] = int32(float64(alpha) * (float64((rad*rad-i*i)*radBias) / rr))
	}
}

// contest finds the closest neuron (min dist) and updates freq, then
// returns the best biased neuron (min dist - bias).
func (t *trainer) contest(r, g, b float64) int {
	bestD := float64(math.MaxInt32)
	bestBiasD := bestD
	bestPos, bestBiasPos := -1, -1

	for i := range t.network {
		n := &t.network[i]
		dist := abs(n.r-r) + abs(n.g-g) + abs(n.b-b)
		if dist < bestD {
			bestD = dist
			bestPos = i
		}
		biasDist := dist - float64(t.bias[i]>>(intBiasShift-netBiasShift))
		if biasDist < bestBiasD {
			bestBiasD = biasDist
			bestBiasPos = i
		}
		betaFreq := t.freq[i] >> betaShift
		t.freq[i] -= betaFreq
		t.bias[i] += betaFreq << gammaShift
	}
	t.freq[bestPos] += beta
	t.bias[bestPos] -= betaGamma
	return bestBiasPos
}

// alterSingle moves neuron i towards (r,g,b) by factor alpha.
func (t *trainer) alterSingle(alpha int32, i int, r, g, b float64) {
	n := &t.network[i]
	a := float64(alpha)
	n.r -= a * (n.r - r) / initAlpha
	n.g -= a * (n.g - g) / initAlpha
	n.b -= a * (n.b - b) / initAlpha
}

// alterNeigh moves the neurons within rad of i towards (r,g,b) by the
// precomputed radPower falloff.
func (t *trainer) alterNeigh(rad, i int, r, g, b float64) {
	lo := i - rad
	if lo < -1 {
		lo = -1
	}
	hi := i + rad
	if hi > netSize {
		hi = netSize
	}

	j, k, m := i+1, i-1, 1
	for j < hi || k > lo {
		a := float64(t.radPower[m])
		m++
		if j < hi {
			n := &t.network[j]
			n.r -= a * (n.r - r) / alphaRadBias
			n.g -= a * (n.g - g) / alphaRadBias
			n.b -= a * (n.b - b) / alphaRadBias
			j++
		}
		if k > lo {
			n := &t.network[k]
			n.r -= a * (n.r - r) / alphaRadBias
			n.g -= a * (n.g - g) / alphaRadBias
			n.b -= a * (n.b - b) / alphaRadBias
			k--
		}
	}
}

// buildIndex sorts the network on green and fills netIndex so that
// netIndex[g] points at the middle of the run of entries with that green.
func (q *Quantizer) buildIndex() {
	previousCol, startPos := 0, 0
	for i := 0; i < netSize; i++ {
		smallPos, smallVal := i, q.net[i].g
		for j := i + 1; j < netSize; j++ {
			if q.net[j].g < smallVal {
				smallPos, smallVal = j, q.net[j].g
			}
		}
		if smallPos != i {
			q.net[i], q.net[smallPos] = q.net[smallPos], q.net[i]
		}
		if smallVal != previousCol {
			q.netIndex[previousCol] = (startPos + i) >> 1
			for j := previousCol + 1; j < smallVal; j++ {
				q.netIndex[j] = i
			}
			previousCol, startPos = smallVal, i
		}
	}
	q.netIndex[previousCol] = (startPos + maxNetPos) >> 1
	for j := previousCol + 1; j < 256; j++ {
		q.netIndex[j] = maxNetPos
	}
}

// Map returns the palette index closest to (r,g,b) by sum of absolute
// channel differences.
func (q *Quantizer) Map(r, g, b uint8) int {
	ri, gi, bi := int(r), int(g), int(b)
	bestD := 1000 // larger than any possible distance
	best := 0

	i := q.netIndex[gi]
	j := i - 1
	for i < netSize || j >= 0 {
		if i < netSize {
			n := q.net[i]
			dist := n.g - gi
			if dist >= bestD {
				i = netSize // stop iterating upwards
			} else {
				i++
				if dist < 0 {
					dist = -dist
				}
				if dist += iabs(n.r - ri); dist < bestD {
					if dist += iabs(n.b - bi); dist < bestD {
						bestD = dist
						best = i - 1
					}
				}
			}
		}
		if j >= 0 {
			n := q.net[j]
			dist := gi - n.g
			if dist >= bestD {
				j = -1 // stop iterating downwards
			} else {
				j--
				if dist < 0 {
					dist = -dist
				}
				if dist += iabs(n.r - ri); dist < bestD {
					if dist += iabs(n.b - bi); dist < bestD {
						bestD = dist
						best = j + 1
					}
				}
			}
		}
	}
	return best
}

// Palette returns the trained colors as 256 R,G,B triples in index order.
func (q *Quantizer) Palette() []byte {
	p := make([]byte, 0, 3*netSize)
	for _, n := range q.net {
		p = append(p, byte(n.r), byte(n.g), byte(n.b))
	}
	return p
}

// ColorPalette returns the trained colors as a color.Palette.
func (q *Quantizer) ColorPalette() color.Palette {
	p := make(color.Palette, netSize)
	for i, n := range q.net {
		p[i] = color.RGBA{R: uint8(n.r), G: uint8(n.g), B: uint8(n.b), A: 0xff}
	}
	return p
}

// MapPixels converts interleaved R,G,B bytes into palette indices. used,
// when non-nil, records every index that occurs.
func (q *Quantizer) MapPixels(pix []byte, used *[256]bool) []byte {
	out := make([]byte, len(pix)/3)
	for i, k := 0, 0; i < len(out); i, k = i+1, k+3 {
		idx := q.Map(pix[k], pix[k+1], pix[k+2])
		out[i] = byte(idx)
		if used != nil {
			used[idx] = true
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
