/*
	This file supports packing label slices into standard images.

	Standard images are convenient ways to transmit 2d arrays because clients have good
	implementations of reading and writing them.  The Janelia Raveler program used PNG images
	to hold 24+ bit labels, and label identifiers up to 64 bits can be held losslessly by
	spreading them over the four 16-bit channels of an NRGBA64 image.
*/

package core

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	// Register decoders so slice stacks in other formats can be imported.
	_ "image/jpeg"

	_ "github.com/janelia-flyem/go/go.image/bmp"
	_ "github.com/janelia-flyem/go/go.image/tiff"
)

// PixelFormat is the pixel representation used to hold label identifiers in an image.
type PixelFormat uint8

const (
	// AutoFormat selects the narrowest lossless format for the data.
	AutoFormat PixelFormat = iota
	Gray8
	Gray16
	RGBA64
)

// ParsePixelFormat parses a configuration string like "auto", "gray8", "gray16" or "rgba64".
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return AutoFormat, nil
	case "gray8", "uint8":
		return Gray8, nil
	case "gray16", "uint16":
		return Gray16, nil
	case "rgba64", "nrgba64", "uint64":
		return RGBA64, nil
	default:
		return AutoFormat, fmt.Errorf("unknown pixel format %q", s)
	}
}

func (f PixelFormat) String() string {
	switch f {
	case AutoFormat:
		return "auto"
	case Gray8:
		return "gray8"
	case Gray16:
		return "gray16"
	case RGBA64:
		return "rgba64"
	default:
		return fmt.Sprintf("pixelformat(%d)", uint8(f))
	}
}

// MaxValue returns the largest label that can be held by the format.
func (f PixelFormat) MaxValue() uint64 {
	switch f {
	case Gray8:
		return math.MaxUint8
	case Gray16:
		return math.MaxUint16
	case RGBA64, AutoFormat:
		return math.MaxUint64
	default:
		return 0
	}
}

// Resolve returns the concrete format for labels whose maximum value is maxLabel.
// An explicit format is checked for capacity; AutoFormat picks the narrowest that fits.
func (f PixelFormat) Resolve(maxLabel uint64) (PixelFormat, error) {
	if f == AutoFormat {
		switch {
		case maxLabel <= math.MaxUint8:
			return Gray8, nil
		case maxLabel <= math.MaxUint16:
			return Gray16, nil
		default:
			return RGBA64, nil
		}
	}
	if f > RGBA64 {
		return f, fmt.Errorf("unknown pixel format %d", uint8(f))
	}
	if maxLabel > f.MaxValue() {
		return f, &ValueRangeError{Max: maxLabel, Format: f}
	}
	return f, nil
}

// LabelsToImage packs a z-major (y, x) slice of labels into an image of the given
// concrete format.  Labels exceeding the format capacity cause a ValueRangeError.
func LabelsToImage(labels []uint64, nx, ny int, format PixelFormat) (image.Image, error) {
	if len(labels) != nx*ny {
		return nil, fmt.Errorf("slice has %d labels, expected %d x %d", len(labels), nx, ny)
	}
	rect := image.Rect(0, 0, nx, ny)
	switch format {
	case Gray8:
		img := image.NewGray(rect)
		for i, lbl := range labels {
			if lbl > math.MaxUint8 {
				return nil, &ValueRangeError{Max: lbl, Format: format}
			}
			img.Pix[i] = uint8(lbl)
		}
		return img, nil
	case Gray16:
		img := image.NewGray16(rect)
		for i, lbl := range labels {
			if lbl > math.MaxUint16 {
				return nil, &ValueRangeError{Max: lbl, Format: format}
			}
			binary.BigEndian.PutUint16(img.Pix[i*2:], uint16(lbl))
		}
		return img, nil
	case RGBA64:
		img := image.NewNRGBA64(rect)
		for i, lbl := range labels {
			binary.BigEndian.PutUint64(img.Pix[i*8:], lbl)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("label images require a concrete pixel format, got %s", format)
	}
}

// ImageToLabels unpacks an image written by LabelsToImage.  Gray images map pixel
// values directly to labels and 64-bit color images are read as packed labels.
func ImageToLabels(img image.Image) (labels []uint64, nx, ny int, err error) {
	bounds := img.Bounds()
	nx, ny = bounds.Dx(), bounds.Dy()
	labels = make([]uint64, nx*ny)
	i := 0
	switch typed := img.(type) {
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := typed.PixOffset(bounds.Min.X, y)
			for x := 0; x < nx; x++ {
				labels[i] = uint64(typed.Pix[off+x])
				i++
			}
		}
	case *image.Gray16:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := typed.PixOffset(bounds.Min.X, y)
			for x := 0; x < nx; x++ {
				labels[i] = uint64(binary.BigEndian.Uint16(typed.Pix[off+2*x:]))
				i++
			}
		}
	case *image.NRGBA64:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := typed.PixOffset(bounds.Min.X, y)
			for x := 0; x < nx; x++ {
				labels[i] = binary.BigEndian.Uint64(typed.Pix[off+8*x:])
				i++
			}
		}
	case *image.RGBA64:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := typed.PixOffset(bounds.Min.X, y)
			for x := 0; x < nx; x++ {
				labels[i] = binary.BigEndian.Uint64(typed.Pix[off+8*x:])
				i++
			}
		}
	default:
		err = fmt.Errorf("cannot read labels from image type %T", img)
	}
	return
}

// ImageToIntensities converts a grayscale image into 16-bit intensity samples.
// Color images are converted through their luminance.
func ImageToIntensities(img image.Image) (vals []uint16, nx, ny int) {
	bounds := img.Bounds()
	nx, ny = bounds.Dx(), bounds.Dy()
	vals = make([]uint16, nx*ny)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			switch typed := img.(type) {
			case *image.Gray:
				vals[i] = uint16(typed.GrayAt(x, y).Y)
			case *image.Gray16:
				vals[i] = typed.Gray16At(x, y).Y
			default:
				r, g, b, _ := img.At(x, y).RGBA()
				vals[i] = uint16((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
			}
			i++
		}
	}
	return
}

// EncodePNG writes an image losslessly.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, img)
}

// ImageFromFile returns an image and its format name given a file name.
func ImageFromFile(filename string) (img image.Image, format string, err error) {
	var file *os.File
	file, err = os.Open(filename)
	if err != nil {
		err = &IOError{Op: "open", Path: filename, Err: err}
		return
	}
	defer file.Close()
	img, format, err = image.Decode(file)
	if err != nil {
		err = fmt.Errorf("unable to decode image %s: %v", filename, err)
	}
	return
}
