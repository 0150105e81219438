package mutlog

// NOTE: THIS FILE WAS PRODUCED BY THE
// MSGP CODE GENERATION TOOL (github.com/tinylib/msgp)
// DO NOT EDIT

import (
	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg implements msgp.Marshaler
func (z *Record) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 8)
	o = msgp.AppendString(o, z.ID)
	o = msgp.AppendInt64(o, z.Time)
	o = msgp.AppendUint16(o, uint16(z.Entry))
	o = msgp.AppendArrayHeader(o, 3)
	for xvk := range z.Point {
		o = msgp.AppendInt32(o, z.Point[xvk])
	}
	o = msgp.AppendString(o, z.Outcome)
	o = msgp.AppendUint64(o, z.Label)
	o = msgp.AppendInt64(o, z.Voxels)
	o = msgp.AppendString(o, z.Detail)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Record) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if asz != 8 {
		err = msgp.ArrayError{Wanted: 8, Got: asz}
		return
	}
	z.ID, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	z.Time, bts, err = msgp.ReadInt64Bytes(bts)
	if err != nil {
		return
	}
	{
		var tmp uint16
		tmp, bts, err = msgp.ReadUint16Bytes(bts)
		z.Entry = EntryType(tmp)
	}
	if err != nil {
		return
	}
	var xsz uint32
	xsz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if xsz != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: xsz}
		return
	}
	for xvk := range z.Point {
		z.Point[xvk], bts, err = msgp.ReadInt32Bytes(bts)
		if err != nil {
			return
		}
	}
	z.Outcome, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	z.Label, bts, err = msgp.ReadUint64Bytes(bts)
	if err != nil {
		return
	}
	z.Voxels, bts, err = msgp.ReadInt64Bytes(bts)
	if err != nil {
		return
	}
	z.Detail, bts, err = msgp.ReadStringBytes(bts)
	if err != nil {
		return
	}
	o = bts
	return
}

func (z *Record) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + msgp.StringPrefixSize + len(z.ID) + msgp.Int64Size + msgp.Uint16Size + msgp.ArrayHeaderSize + (3 * (msgp.Int32Size)) + msgp.StringPrefixSize + len(z.Outcome) + msgp.Uint64Size + msgp.Int64Size + msgp.StringPrefixSize + len(z.Detail)
	return
}
