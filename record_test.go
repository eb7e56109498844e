package binform

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RecordTestSuite struct {
	suite.Suite

	point *Schema
}

func (s *RecordTestSuite) SetupSuite() {
	s.point = MustNew("point", Config{Mode: CCompatible, ByteOrder: LittleEndian}, pointFields())
}

func (s *RecordTestSuite) TestConstructionValidation() {
	_, err := s.point.NewRecord(map[string]any{"x": 1.0, "y": 2.0, "label": "p", "bogus": 1})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrUnknownField)

	_, err = s.point.NewRecord(map[string]any{"x": 1.0, "label": "p"})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrBadValue) // y is required

	_, err = s.point.NewRecord(map[string]any{"x": "not a number", "y": 2.0, "label": "p"})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrBadValue)

	// A nil value counts as omitted, not as an explicit null.
	_, err = s.point.NewRecord(map[string]any{"x": 1.0, "y": nil, "label": "p"})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrBadValue)
}

func (s *RecordTestSuite) TestIntegerRangeChecks() {
	sc := MustNew("t", Config{Mode: CCompatible}, []Field{
		{Name: "small", Kind: Uint8},
	})

	_, err := sc.NewRecord(map[string]any{"small": 300})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrValueRange)

	_, err = sc.NewRecord(map[string]any{"small": -1})
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrValueRange)

	rec, err := sc.NewRecord(map[string]any{"small": 255})
	s.Require().NoError(err)
	s.Assert().Equal(uint8(255), rec.MustGet("small"))
}

func (s *RecordTestSuite) TestGetSetUnset() {
	sc := MustNew("t", Config{Mode: Dynamic}, []Field{
		{Name: "id", Kind: Int},
		{Name: "note", Kind: String, MaxLength: 8, Optional: true},
	})

	rec, err := sc.NewRecord(map[string]any{"id": 1})
	s.Require().NoError(err)

	s.Require().NoError(rec.Set("note", "hi"))
	s.Assert().Equal("hi", rec.MustGet("note"))

	s.Require().NoError(rec.Unset("note"))
	note, err := rec.Get("note")
	s.Require().NoError(err)
	s.Assert().True(note.Absent())
	s.Assert().Nil(note.Any())

	err = rec.Unset("id")
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrBadValue) // id is required

	err = rec.Set("bogus", 1)
	s.Assert().ErrorIs(err, ErrUnknownField)
	_, err = rec.Get("bogus")
	s.Assert().ErrorIs(err, ErrUnknownField)
	s.Assert().Panics(func() { rec.MustGet("bogus") })
}

func (s *RecordTestSuite) TestSetRejectsBadValue() {
	rec, err := s.point.NewRecord(map[string]any{"x": 1.0, "y": 2.0, "label": "p"})
	s.Require().NoError(err)

	err = rec.Set("label", 42)
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrBadValue)
	// The old value survives a failed write.
	s.Assert().Equal("p", rec.MustGet("label"))
}

func (s *RecordTestSuite) TestDefaultFunc() {
	calls := 0
	sc := MustNew("t", Config{Mode: CCompatible}, []Field{
		{Name: "seq", Kind: Int, Optional: true, DefaultFunc: func() any {
			calls++
			return calls
		}},
	})

	r1, err := sc.NewRecord(nil)
	s.Require().NoError(err)
	r2, err := sc.NewRecord(nil)
	s.Require().NoError(err)

	// Each instance invokes the factory anew.
	s.Assert().NotEqual(r1.MustGet("seq"), r2.MustGet("seq"))
}

func (s *RecordTestSuite) TestDefaultFuncNotInvokedAtCompile() {
	calls := 0
	sc := MustNew("t", Config{Mode: CCompatible}, []Field{
		{Name: "seq", Kind: Int, Optional: true, DefaultFunc: func() any {
			calls++
			return calls
		}},
	})
	// Compiling the schema consumes no factory values.
	s.Assert().Equal(0, calls)

	rec, err := sc.NewRecord(nil)
	s.Require().NoError(err)
	s.Assert().Equal(1, calls)
	s.Assert().Equal(int64(1), rec.MustGet("seq"))
}

func (s *RecordTestSuite) TestClone() {
	rec, err := s.point.NewRecord(map[string]any{"x": 1.5, "y": 2.5, "label": "orig"})
	s.Require().NoError(err)

	copied, err := rec.Clone(map[string]any{"y": 9.5})
	s.Require().NoError(err)

	s.Assert().Equal(1.5, copied.MustGet("x"))
	s.Assert().Equal(9.5, copied.MustGet("y"))
	s.Assert().Equal("orig", copied.MustGet("label"))

	// The copy is independent of the original.
	s.Require().NoError(copied.Set("label", "other"))
	s.Assert().Equal("orig", rec.MustGet("label"))
	s.Assert().Equal(2.5, rec.MustGet("y"))
}

func (s *RecordTestSuite) TestCloneNormalizesThroughTheWire() {
	sc := MustNew("t", Config{Mode: CCompatible}, []Field{
		{Name: "name", Kind: String, Length: 6},
	})

	rec, err := sc.NewRecord(map[string]any{"name": "much too long"})
	s.Require().NoError(err)

	copied, err := rec.Clone(nil)
	s.Require().NoError(err)
	// The copy holds what the wire carries, not the oversized input.
	s.Assert().Equal("much ", copied.MustGet("name"))
}

func (s *RecordTestSuite) TestMarshalTo() {
	rec, err := s.point.NewRecord(map[string]any{"x": 1.0, "y": 2.0, "label": "p"})
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	buf := make([]byte, rec.Size())
	n, err := rec.MarshalTo(buf)
	s.Require().NoError(err)
	s.Assert().Equal(len(data), n)
	s.Assert().Equal(data, buf[:n])

	_, err = rec.MarshalTo(make([]byte, rec.Size()-1))
	s.Assert().ErrorIs(err, io.ErrShortBuffer)
}

func (s *RecordTestSuite) TestWriteTo() {
	rec, err := s.point.NewRecord(map[string]any{"x": 1.0, "y": 2.0, "label": "p"})
	s.Require().NoError(err)

	data, err := rec.MarshalBinary()
	s.Require().NoError(err)

	var buf bytes.Buffer
	n, err := rec.WriteTo(&buf)
	s.Require().NoError(err)
	s.Assert().Equal(int64(len(data)), n)
	s.Assert().Equal(data, buf.Bytes())
}

func TestRecord(t *testing.T) {
	suite.Run(t, new(RecordTestSuite))
}
