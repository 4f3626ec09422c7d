package matching

import (
	"image"
	"log/slog"
)

// ChannelMeans returns the mean red, green and blue values of img on a
// 0-255 scale. Alpha is ignored.
func ChannelMeans(img image.Image) ([3]float64, bool) {
	var means [3]float64
	if img == nil {
		return means, false
	}

	b := img.Bounds()
	if b.Empty() {
		return means, false
	}

	src := toNRGBA(img)
	sb := src.Bounds()

	var sumR, sumG, sumB uint64
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		row := src.Pix[src.PixOffset(sb.Min.X, y):]
		for i := 0; i < sb.Dx()*4; i += 4 {
			sumR += uint64(row[i])
			sumG += uint64(row[i+1])
			sumB += uint64(row[i+2])
		}
	}

	n := float64(b.Dx() * b.Dy())
	means[0] = float64(sumR) / n
	means[1] = float64(sumG) / n
	means[2] = float64(sumB) / n
	return means, true
}

// MeanVariance is the population variance of the three channel means.
func MeanVariance(means [3]float64) float64 {
	avg := (means[0] + means[1] + means[2]) / 3
	var v float64
	for _, m := range means {
		v += (m - avg) * (m - avg)
	}
	return v / 3
}

// DetectStyle labels img as Cartoon when its channel means are spread apart
// by more than threshold (variance of the three means). Covers with a
// dominant saturated background land here; photographic covers keep their
// channel means close together.
//
// DetectStyle never fails. Anything that goes wrong yields Standard, since the
// style only selects a scoring profile.
func DetectStyle(img image.Image, threshold float64) (style Style) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Cartoon detection failed", "err", r)
			style = Standard
		}
	}()

	means, ok := ChannelMeans(img)
	if !ok {
		slog.Warn("Cartoon detection skipped, empty image")
		return Standard
	}

	variance := MeanVariance(means)
	style = Standard
	if variance > threshold {
		style = Cartoon
	}

	slog.Debug("Cover color analysis",
		"r", means[0],
		"g", means[1],
		"b", means[2],
		"variance", variance,
		"style", style.String())

	return style
}
