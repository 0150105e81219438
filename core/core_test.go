package core

import (
	"math"
	"testing"

	. "github.com/janelia-flyem/go/gocheck"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type CoreSuite struct{}

var _ = Suite(&CoreSuite{})

func (s *CoreSuite) TestPoint3d(c *C) {
	size := Point3d{3, 4, 5}
	c.Assert(size.Prod(), Equals, int64(60))
	c.Assert(size.Valid(), IsNil)
	c.Assert(Point3d{0, 4, 5}.Valid(), NotNil)

	c.Assert(size.Contains(Point3d{0, 0, 0}), Equals, true)
	c.Assert(size.Contains(Point3d{2, 3, 4}), Equals, true)
	c.Assert(size.Contains(Point3d{3, 0, 0}), Equals, false)
	c.Assert(size.Contains(Point3d{0, -1, 0}), Equals, false)

	pt := Point3d{2, 1, 3}
	i := size.Index(pt)
	c.Assert(i, Equals, 2*20+1*5+3)
	c.Assert(size.PointAt(i), Equals, pt)

	c.Assert(pt.String(), Equals, "(2,1,3)")
}

func (s *CoreSuite) TestParsePoints(c *C) {
	pt, err := StringToPoint3d("4, 5,6", ",")
	c.Assert(err, IsNil)
	c.Assert(pt, Equals, Point3d{4, 5, 6})

	_, err = StringToPoint3d("4,5", ",")
	c.Assert(err, NotNil)

	pts, err := StringToPoints("0,1,1; 2,3,4")
	c.Assert(err, IsNil)
	c.Assert(pts, DeepEquals, []Point3d{{0, 1, 1}, {2, 3, 4}})

	pts, err = StringToPoints("")
	c.Assert(err, IsNil)
	c.Assert(pts, HasLen, 0)

	var p Point3d
	c.Assert(p.UnmarshalJSON([]byte("[7,8,9]")), IsNil)
	c.Assert(p, Equals, Point3d{7, 8, 9})
	c.Assert(p.UnmarshalJSON([]byte("[7,8]")), NotNil)
	b, err := p.MarshalJSON()
	c.Assert(err, IsNil)
	c.Assert(string(b), Equals, "[7,8,9]")
}

func (s *CoreSuite) TestOverflowPoints(c *C) {
	var p Point3d
	c.Assert(p.UnmarshalJSON([]byte("[5000000000,0,-5000000000]")), IsNil)
	c.Assert(p, Equals, Point3d{math.MaxInt32, 0, math.MinInt32})
	c.Assert(Point3d{3, 4, 5}.Contains(p), Equals, false)

	c.Assert(p.UnmarshalJSON([]byte("[1e12,2.0,3]")), IsNil)
	c.Assert(p, Equals, Point3d{math.MaxInt32, 2, 3})
	c.Assert(p.UnmarshalJSON([]byte("[1.5,2,3]")), NotNil)
	c.Assert(p.UnmarshalJSON([]byte(`["a",2,3]`)), NotNil)

	pt, err := StringToPoint3d("99999999999,1,1", ",")
	c.Assert(err, IsNil)
	c.Assert(pt, Equals, Point3d{math.MaxInt32, 1, 1})
	_, err = StringToPoint3d("x,1,1", ",")
	c.Assert(err, NotNil)
}

func (s *CoreSuite) TestNumDigits(c *C) {
	c.Assert(NumDigits(0), Equals, 1)
	c.Assert(NumDigits(9), Equals, 1)
	c.Assert(NumDigits(10), Equals, 2)
	c.Assert(NumDigits(1234), Equals, 4)
}

func (s *CoreSuite) TestConvertToAbsolute(c *C) {
	p, err := ConvertToAbsolute("logs/neuropil.log", "/etc/neuropil")
	c.Assert(err, IsNil)
	c.Assert(p, Equals, "/etc/neuropil/logs/neuropil.log")

	p, err = ConvertToAbsolute("/var/log/x.log", "/etc/neuropil")
	c.Assert(err, IsNil)
	c.Assert(p, Equals, "/var/log/x.log")

	p, err = ConvertToAbsolute("gs://bucket/labels", "/etc/neuropil")
	c.Assert(err, IsNil)
	c.Assert(p, Equals, "gs://bucket/labels")
}
