package core

import (
	. "github.com/janelia-flyem/go/gocheck"
)

func (s *CoreSuite) TestSerializeData(c *C) {
	labels := make([]uint64, 1000)
	for i := range labels {
		labels[i] = uint64(i % 7)
	}
	data := Uint64sToBytes(labels)

	for _, compress := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compress, checksum)
			c.Assert(err, IsNil)

			got, gotCompress, err := DeserializeData(s, true)
			c.Assert(err, IsNil)
			c.Assert(gotCompress, Equals, compress)
			c.Assert(got, DeepEquals, data)

			vals, err := BytesToUint64s(got)
			c.Assert(err, IsNil)
			c.Assert(vals, DeepEquals, labels)
		}
	}
}

func (s *CoreSuite) TestBadChecksum(c *C) {
	s1, err := SerializeData([]byte("some label data"), Snappy, CRC32)
	c.Assert(err, IsNil)
	s1[len(s1)-1] ^= 0xFF
	_, _, err = DeserializeData(s1, true)
	c.Assert(err, ErrorMatches, "bad checksum.*")
}

func (s *CoreSuite) TestIntensityBytes(c *C) {
	vals := []uint16{0, 1, 255, 256, 65535}
	got, err := BytesToUint16s(Uint16sToBytes(vals))
	c.Assert(err, IsNil)
	c.Assert(got, DeepEquals, vals)

	_, err = BytesToUint16s([]byte{1, 2, 3})
	c.Assert(err, NotNil)
	_, err = BytesToUint64s([]byte{1, 2, 3})
	c.Assert(err, NotNil)
}

func (s *CoreSuite) TestParseCompression(c *C) {
	for name, expected := range map[string]Compression{"": Zstd, "zstd": Zstd, "Snappy": Snappy, "none": Uncompressed} {
		compress, err := ParseCompression(name)
		c.Assert(err, IsNil)
		c.Assert(compress, Equals, expected)
	}
	_, err := ParseCompression("lz4")
	c.Assert(err, NotNil)
}
