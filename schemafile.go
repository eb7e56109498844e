package binform

import (
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Schema descriptors let record types be declared as data instead of code,
// so two systems can agree on a layout by exchanging a JSON document:
//
//	{
//	  "name": "point",
//	  "mode": "c_compatible",
//	  "byte_order": "little",
//	  "fields": [
//	    {"name": "x", "kind": "float64"},
//	    {"name": "label", "kind": "string", "max_length": 10},
//	    {"name": "flags", "kind": "bits", "bit_width": 8,
//	     "bits": [{"name": "read", "bit": 0}, {"name": "mode", "start": 1, "bits": 2}]},
//	    {"name": "inner", "kind": "struct", "record": "point_inner"}
//	  ]
//	}
//
// Nested "record" references resolve through the schema registry, so inner
// record types must be registered before the outer document is parsed.

type schemaDoc struct {
	Name               string     `json:"name"`
	Mode               string     `json:"mode"`
	ByteOrder          string     `json:"byte_order"`
	Version            uint8      `json:"version"`
	BitWidth           int        `json:"bit_width"`
	PropagateByteOrder bool       `json:"propagate_byte_order"`
	Fields             []fieldDoc `json:"fields"`
}

type fieldDoc struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Optional  bool     `json:"optional"`
	Length    int      `json:"length"`
	MaxLength int      `json:"max_length"`
	Format    string   `json:"format"`
	Default   any      `json:"default"`
	Values    []int64  `json:"values"`
	Labels    []string `json:"labels"`
	Record    string   `json:"record"`
	BitWidth  int      `json:"bit_width"`
	Bits      []bitDoc `json:"bits"`
}

type bitDoc struct {
	Name  string `json:"name"`
	Bit   int    `json:"bit"`
	Start int    `json:"start"`
	Bits  int    `json:"bits"`
}

var kindsByName = map[string]Kind{
	"bool":    Bool,
	"int8":    Int8,
	"uint8":   Uint8,
	"int16":   Int16,
	"uint16":  Uint16,
	"int":     Int,
	"float32": Float32,
	"float64": Float64,
	"string":  String,
	"bytes":   Bytes,
	"ipv4":    IPv4,
	"ipv6":    IPv6,
	"uuid":    UUID,
	"enum":    Enum,
	"struct":  Struct,
	"bits":    Bits,
}

// ParseSchemaJSON compiles a record type from a JSON descriptor. The result
// carries the same eager validation as New; the caller decides whether to
// register it.
func ParseSchemaJSON(data []byte) (*Schema, error) {
	var doc schemaDoc
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, schemaErrf("", "", ErrBadConfig, "descriptor: %v", err)
	}

	cfg := Config{
		Version:            Version(doc.Version),
		BitWidth:           doc.BitWidth,
		PropagateByteOrder: doc.PropagateByteOrder,
	}
	switch doc.Mode {
	case "c_compatible":
		cfg.Mode = CCompatible
	case "dynamic", "":
		cfg.Mode = Dynamic
	default:
		return nil, schemaErrf(doc.Name, "", ErrBadConfig, "mode %q", doc.Mode)
	}
	switch doc.ByteOrder {
	case "little", "":
		cfg.ByteOrder = LittleEndian
	case "big":
		cfg.ByteOrder = BigEndian
	case "native":
		cfg.ByteOrder = NativeEndian
	default:
		return nil, schemaErrf(doc.Name, "", ErrBadConfig, "byte order %q", doc.ByteOrder)
	}

	fields := make([]Field, 0, len(doc.Fields))
	for _, fd := range doc.Fields {
		f, err := fd.toField(doc.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return New(doc.Name, cfg, fields)
}

func (fd fieldDoc) toField(schemaName string) (Field, error) {
	kind, ok := kindsByName[fd.Kind]
	if !ok {
		return Field{}, schemaErrf(schemaName, fd.Name, ErrUnsupportedKind, "%q", fd.Kind)
	}
	f := Field{
		Name:      fd.Name,
		Kind:      kind,
		Optional:  fd.Optional,
		Length:    fd.Length,
		MaxLength: fd.MaxLength,
		Default:   fd.Default,
		Enum:      fd.Values,
		Labels:    fd.Labels,
	}
	if fd.Format != "" {
		if len(fd.Format) != 1 {
			return Field{}, schemaErrf(schemaName, fd.Name, ErrBadConfig, "format %q", fd.Format)
		}
		f.Format = fd.Format[0]
	}

	switch kind {
	case Struct:
		if fd.Record == "" {
			return Field{}, schemaErrf(schemaName, fd.Name, ErrBadConfig, "struct field needs a record reference")
		}
		nested, ok := LookupSchema(fd.Record)
		if !ok {
			return Field{}, schemaErrf(schemaName, fd.Name, ErrBadConfig, "record %q is not registered", fd.Record)
		}
		f.Nested = nested
	case Bits:
		defs := make([]BitDef, 0, len(fd.Bits))
		for _, bd := range fd.Bits {
			if bd.Bits > 0 {
				defs = append(defs, BitRange(bd.Name, bd.Start, bd.Bits))
			} else {
				defs = append(defs, Flag(bd.Name, bd.Bit))
			}
		}
		layout, err := NewBitLayout(fd.BitWidth, defs...)
		if err != nil {
			return Field{}, fmt.Errorf("field %q: %w", fd.Name, err)
		}
		f.Bits = layout
	}
	return f, nil
}
