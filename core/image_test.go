package core

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"

	. "github.com/janelia-flyem/go/gocheck"
)

func (s *CoreSuite) TestResolvePixelFormat(c *C) {
	f, err := AutoFormat.Resolve(200)
	c.Assert(err, IsNil)
	c.Assert(f, Equals, Gray8)

	f, err = AutoFormat.Resolve(300)
	c.Assert(err, IsNil)
	c.Assert(f, Equals, Gray16)

	f, err = AutoFormat.Resolve(70000)
	c.Assert(err, IsNil)
	c.Assert(f, Equals, RGBA64)

	_, err = Gray8.Resolve(256)
	var rangeErr *ValueRangeError
	c.Assert(errors.As(err, &rangeErr), Equals, true)
	c.Assert(rangeErr.Max, Equals, uint64(256))

	_, err = Gray16.Resolve(65535)
	c.Assert(err, IsNil)

	for _, name := range []string{"auto", "gray8", "GRAY16", "rgba64"} {
		_, err := ParsePixelFormat(name)
		c.Assert(err, IsNil)
	}
	_, err = ParsePixelFormat("jpeg")
	c.Assert(err, NotNil)
}

func (s *CoreSuite) TestLabelImageRoundTrip(c *C) {
	nx, ny := 5, 3
	cases := []struct {
		format PixelFormat
		max    uint64
	}{
		{Gray8, 255},
		{Gray16, 65535},
		{RGBA64, math.MaxUint64},
	}
	for _, tc := range cases {
		labels := make([]uint64, nx*ny)
		for i := range labels {
			labels[i] = uint64(i) * (tc.max / uint64(nx*ny))
		}
		labels[len(labels)-1] = tc.max

		img, err := LabelsToImage(labels, nx, ny, tc.format)
		c.Assert(err, IsNil)

		var buf bytes.Buffer
		c.Assert(EncodePNG(&buf, img), IsNil)
		decoded, err := png.Decode(&buf)
		c.Assert(err, IsNil)

		got, gotX, gotY, err := ImageToLabels(decoded)
		c.Assert(err, IsNil)
		c.Assert(gotX, Equals, nx)
		c.Assert(gotY, Equals, ny)
		c.Assert(got, DeepEquals, labels, Commentf("format %s", tc.format))
	}
}

func (s *CoreSuite) TestOpaqueRGBA64(c *C) {
	// Every low word is 0xFFFF so the encoder drops the alpha channel.
	labels := []uint64{0xFFFF, 1<<16 | 0xFFFF, 1<<40 | 0xFFFF, math.MaxUint64}
	img, err := LabelsToImage(labels, 2, 2, RGBA64)
	c.Assert(err, IsNil)

	var buf bytes.Buffer
	c.Assert(EncodePNG(&buf, img), IsNil)
	decoded, err := png.Decode(&buf)
	c.Assert(err, IsNil)

	got, _, _, err := ImageToLabels(decoded)
	c.Assert(err, IsNil)
	c.Assert(got, DeepEquals, labels)
}

func (s *CoreSuite) TestLabelImageOverflow(c *C) {
	_, err := LabelsToImage([]uint64{1, 256}, 2, 1, Gray8)
	var rangeErr *ValueRangeError
	c.Assert(errors.As(err, &rangeErr), Equals, true)

	_, err = LabelsToImage([]uint64{1, 2, 3}, 2, 1, Gray16)
	c.Assert(err, NotNil)

	_, err = LabelsToImage([]uint64{1, 2}, 2, 1, AutoFormat)
	c.Assert(err, NotNil)
}

func (s *CoreSuite) TestImageToIntensities(c *C) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.Pix = []uint8{0, 1, 0, 2, 1, 0, 255, 255}
	vals, nx, ny := ImageToIntensities(img)
	c.Assert(nx, Equals, 2)
	c.Assert(ny, Equals, 2)
	c.Assert(vals, DeepEquals, []uint16{1, 2, 256, 65535})
}
