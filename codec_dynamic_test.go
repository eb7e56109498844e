package binform

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DynamicCodecTestSuite struct {
	suite.Suite
}

func (s *DynamicCodecTestSuite) TestHeaderAndPlaceholderBitmap() {
	sc := MustNew("telemetry", Config{Mode: Dynamic, ByteOrder: LittleEndian}, []Field{
		{Name: "seq", Kind: Int},
		{Name: "temp", Kind: Float64},
		{Name: "tag", Kind: String, MaxLength: 8},
		{Name: "ok", Kind: Bool},
	})
	s.Assert().Equal("<id8s?", sc.Format())

	rec, err := sc.NewRecord(map[string]any{
		"seq":  42,
		"temp": 3.5,
		"tag":  "abc",
		"ok":   true,
	})
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	expected := []byte{
		0x01, 0x00, 0x00, 0x00, // version 1, flags 0, reserved
		0x00,                   // placeholder bitmap: no optional fields
		0x2a, 0x00, 0x00, 0x00, // seq = 42
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0c, 0x40, // temp = 3.5
		'a', 'b', 'c', 0x00, 0x00, 0x00, 0x00, 0x00, // tag, zero-padded
		0x01, // ok = true
	}
	s.Assert().Equal(expected, data)
	s.Assert().Equal(len(expected), rec.Size())

	back, err := sc.Unmarshal(data)
	s.Require().NoError(err)
	s.Assert().Equal(int64(42), back.MustGet("seq"))
	s.Assert().Equal(3.5, back.MustGet("temp"))
	s.Assert().Equal("abc", back.MustGet("tag"))
	s.Assert().Equal(true, back.MustGet("ok"))
}

func (s *DynamicCodecTestSuite) TestPresenceBitmap() {
	sc := MustNew("session", Config{Mode: Dynamic, ByteOrder: LittleEndian}, []Field{
		{Name: "id", Kind: Uint16},
		{Name: "score", Kind: Float64, Optional: true},
		{Name: "note", Kind: String, MaxLength: 4, Optional: true},
		{Name: "live", Kind: Bool, Optional: true},
	})

	rec, err := sc.NewRecord(map[string]any{"id": 7, "note": "hi"})
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	expected := []byte{
		0x01, 0x02, 0x00, 0x00, // version 1, flags: has-optional
		0x05,       // bitmap: fields 0 and 2 present
		0x07, 0x00, // id = 7
		'h', 'i', 0x00, 0x00, // note, zero-padded
	}
	s.Assert().Equal(expected, data)
	s.Assert().Equal(len(expected), rec.Size())

	back, err := sc.Unmarshal(data)
	s.Require().NoError(err)
	s.Assert().Equal(uint16(7), back.MustGet("id"))
	s.Assert().Equal("hi", back.MustGet("note"))
	s.Assert().Nil(back.MustGet("score"))
	s.Assert().Nil(back.MustGet("live"))

	score, err := back.Get("score")
	s.Require().NoError(err)
	s.Assert().True(score.Absent())
}

func (s *DynamicCodecTestSuite) TestAllFieldsAbsent() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{
		{Name: "a", Kind: Int, Optional: true},
		{Name: "b", Kind: Bool, Optional: true},
	})

	rec, err := sc.NewRecord(nil)
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x01, 0x02, 0x00, 0x00, 0x00}, data)

	back, err := sc.Unmarshal(data)
	s.Require().NoError(err)
	a, err := back.Get("a")
	s.Require().NoError(err)
	s.Assert().True(a.Absent())
	b, err := back.Get("b")
	s.Require().NoError(err)
	s.Assert().True(b.Absent())
}

func (s *DynamicCodecTestSuite) TestVariableSizeTracksPresence() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{
		{Name: "a", Kind: Float64},
		{Name: "b", Kind: Float64, Optional: true},
	})

	full, err := sc.NewRecord(map[string]any{"a": 1.0, "b": 2.0})
	s.Require().NoError(err)
	partial, err := sc.NewRecord(map[string]any{"a": 1.0})
	s.Require().NoError(err)

	s.Assert().Equal(partial.Size()+8, full.Size())

	fullData, err := full.MarshalBinary()
	s.Require().NoError(err)
	partialData, err := partial.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Len(fullData, full.Size())
	s.Assert().Len(partialData, partial.Size())
}

func (s *DynamicCodecTestSuite) TestDecodeFollowsHeaderEndianness() {
	fields := []Field{{Name: "n", Kind: Uint16}}
	le := MustNew("t", Config{Mode: Dynamic, ByteOrder: LittleEndian}, fields)
	be := MustNew("t", Config{Mode: Dynamic, ByteOrder: BigEndian}, fields)

	rec, err := be.NewRecord(map[string]any{"n": 0x1234})
	s.Require().NoError(err)
	data, err := rec.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal(flagBigEndian, data[1]&flagBigEndian)

	// The header's endian flag wins over the decoding schema's declaration.
	back, err := le.Unmarshal(data)
	s.Require().NoError(err)
	s.Assert().Equal(uint16(0x1234), back.MustGet("n"))

	// UnmarshalStatic trusts the schema instead and misreads the bytes.
	static, err := le.UnmarshalStatic(data)
	s.Require().NoError(err)
	s.Assert().Equal(uint16(0x3412), static.MustGet("n"))
}

func (s *DynamicCodecTestSuite) TestVersionMismatch() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{{Name: "ok", Kind: Bool}})

	rec, err := sc.NewRecord(map[string]any{"ok": true})
	s.Require().NoError(err)
	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	data[0] = 2
	_, err = sc.Unmarshal(data)
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrVersionMismatch)
}

func (s *DynamicCodecTestSuite) TestShortBuffer() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{{Name: "ok", Kind: Bool}})

	for _, n := range []int{0, 1, 3} {
		_, err := sc.Unmarshal(make([]byte, n))
		s.Require().Error(err)
		s.Assert().ErrorIs(err, ErrShortBuffer)
	}
}

func (s *DynamicCodecTestSuite) TestRequiredFieldClearInBitmap() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{
		{Name: "id", Kind: Uint8},
		{Name: "note", Kind: String, MaxLength: 2, Optional: true},
	})

	// Header with the has-optional flag, bitmap with every bit clear: the
	// required field is missing from the payload.
	data := []byte{0x01, 0x02, 0x00, 0x00, 0x00}
	_, err := sc.Unmarshal(data)
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrBadBitmap)

	var ue *UnpackError
	s.Require().ErrorAs(err, &ue)
	s.Assert().Equal("id", ue.Field)
}

func (s *DynamicCodecTestSuite) TestFieldSectionSizeMismatch() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{{Name: "n", Kind: Uint16}})

	rec, err := sc.NewRecord(map[string]any{"n": 1})
	s.Require().NoError(err)
	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	_, err = sc.Unmarshal(append(data, 0))
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrSizeMismatch)
}

func (s *DynamicCodecTestSuite) TestFullLengthStringKeepsAllBytes() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{
		{Name: "name", Kind: String, MaxLength: 10},
	})

	rec, err := sc.NewRecord(map[string]any{"name": "this string is way too long"})
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	back, err := sc.Unmarshal(data)
	s.Require().NoError(err)
	// No terminator slot: all 10 bytes carry content.
	s.Assert().Equal("this strin", back.MustGet("name"))
}

func (s *DynamicCodecTestSuite) TestWideIntegerFormats() {
	sc := MustNew("t", Config{Mode: Dynamic, ByteOrder: BigEndian}, []Field{
		{Name: "big", Kind: Int, Format: 'q'},
		{Name: "wide", Kind: Int, Format: 'Q'},
	})

	rec, err := sc.NewRecord(map[string]any{
		"big":  int64(-2),
		"wide": uint64(0x0102030405060708),
	})
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{
		0x01, 0x01, 0x00, 0x00,
		0x00,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}, data)

	back, err := sc.Unmarshal(data)
	s.Require().NoError(err)
	s.Assert().Equal(int64(-2), back.MustGet("big"))
	s.Assert().Equal(int64(0x0102030405060708), back.MustGet("wide"))
}

func TestDynamicCodec(t *testing.T) {
	suite.Run(t, new(DynamicCodecTestSuite))
}
