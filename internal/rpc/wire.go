// Package rpc holds the scheduling.v1 wire contract: message types with their
// protobuf encoding, the codec that carries them, and the service descriptor.
// The encoding is kept by hand with protowire; field numbers are the contract
// and must never be reused.
package rpc

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Message is implemented by every request and response type.
type Message interface {
	AppendWire(b []byte) []byte
	UnmarshalWire(b []byte) error
}

// Codec marshals Message values. It registers under the standard "proto" name so
// regular gRPC clients interoperate.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("rpc: cannot marshal %T", v)
	}
	return m.AppendWire(nil), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("rpc: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return "proto" }

type field struct {
	num   protowire.Number
	typ   protowire.Type
	bytes []byte
}

func (f field) str() string {
	if f.typ != protowire.BytesType {
		return ""
	}
	return string(f.bytes)
}

// eachField walks the length-delimited fields of b. Other wire types are skipped
// since no message here uses them.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(field{num: num, typ: typ, bytes: v}); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
	}
	return nil
}

// proto3 omits empty scalars
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

func appendTimestamp(b []byte, num protowire.Number, ts *timestamppb.Timestamp) []byte {
	if ts == nil {
		return b
	}
	inner, err := proto.Marshal(ts)
	if err != nil {
		// unreachable for Timestamp
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func parseTimestamp(b []byte) (*timestamppb.Timestamp, error) {
	ts := &timestamppb.Timestamp{}
	if err := proto.Unmarshal(b, ts); err != nil {
		return nil, err
	}
	return ts, nil
}
