package matching

import (
	"fmt"
	"image"
)

// RotationAngles lists the query orientations in the order they are scored.
// The order is part of the tie-break rule and must not change.
var RotationAngles = [4]int{0, 90, 180, 270}

// Rotation is the query image turned counter-clockwise by Angle degrees.
type Rotation struct {
	Angle int
	Image image.Image
}

// Rotations returns img at 0, 90, 180 and 270 degrees, in that order.
func Rotations(img image.Image) []Rotation {
	src := toNRGBA(img)
	out := make([]Rotation, 0, len(RotationAngles))
	for _, angle := range RotationAngles {
		if angle == 0 {
			out = append(out, Rotation{Angle: angle, Image: img})
			continue
		}
		out = append(out, Rotation{Angle: angle, Image: rotateNRGBA(src, angle)})
	}
	return out
}

// Rotate turns img counter-clockwise by angle degrees, which must be a
// multiple of 90. The canvas is resized to fit the rotated content, so 90 and
// 270 swap width and height. The source image is never modified; angle 0
// returns it unchanged.
func Rotate(img image.Image, angle int) image.Image {
	angle = ((angle % 360) + 360) % 360
	if angle == 0 {
		return img
	}
	if angle%90 != 0 {
		panic(fmt.Sprintf("matching: unsupported rotation angle %d", angle))
	}

	return rotateNRGBA(toNRGBA(img), angle)
}

func rotateNRGBA(src *image.NRGBA, angle int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.NRGBA
	if angle == 180 {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			var dx, dy int
			switch angle {
			case 90:
				dx, dy = y, w-1-x
			case 180:
				dx, dy = w-1-x, h-1-y
			case 270:
				dx, dy = h-1-y, x
			}
			copy(dst.Pix[dst.PixOffset(dx, dy):], row[x*4:x*4+4])
		}
	}

	return dst
}
