package matching

import (
	"image"
	"image/color"
	"image/draw"
)

// toNRGBA returns img as an *image.NRGBA. NRGBA images are returned as is.
// YCbCr images, which is what JPEG photos decode to, are converted straight
// from their planes. Anything else goes through draw.Draw.
func toNRGBA(img image.Image) *image.NRGBA {
	switch src := img.(type) {
	case *image.NRGBA:
		return src
	case *image.YCbCr:
		b := src.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := dst.Pix[(y-b.Min.Y)*dst.Stride:]
			for x := b.Min.X; x < b.Max.X; x++ {
				yi, ci := src.YOffset(x, y), src.COffset(x, y)
				// same rounding as color.NRGBAModel.Convert on an opaque color
				r, g, bl, _ := color.YCbCr{Y: src.Y[yi], Cb: src.Cb[ci], Cr: src.Cr[ci]}.RGBA()
				i := (x - b.Min.X) * 4
				row[i] = uint8(r >> 8)
				row[i+1] = uint8(g >> 8)
				row[i+2] = uint8(bl >> 8)
				row[i+3] = 0xff
			}
		}
		return dst
	default:
		b := img.Bounds()
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
}
