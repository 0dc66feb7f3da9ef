// internal/signal/value.go
package signal

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotNumeric = errors.New("signal: value is not numeric")
	ErrZeroGain   = errors.New("signal: gain must be > 0")
)

// Kind is the declared wire type of a signal.
// The set is closed: every switch over Kind lists all variants.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindU16
	KindI16
	KindU32
	KindI32
	KindText
)

// ParseKind maps a definition-file dtype onto a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "U16":
		return KindU16, true
	case "I16":
		return KindI16, true
	case "U32":
		return KindU32, true
	case "I32":
		return KindI32, true
	case "STR":
		return KindText, true
	}
	return KindUnknown, false
}

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "UNK"
	case KindU16:
		return "U16"
	case KindI16:
		return "I16"
	case KindU32:
		return "U32"
	case KindI32:
		return "I32"
	case KindText:
		return "STR"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Registers returns how many 16-bit registers a value of this kind occupies.
// Text is the only kind whose width is taken from the declared length.
func (k Kind) Registers(length uint16) uint16 {
	switch k {
	case KindU16, KindI16, KindUnknown:
		return 1
	case KindU32, KindI32:
		return 2
	case KindText:
		return length
	}
	return length
}

// Numeric reports whether values of this kind are appended as samples.
func (k Kind) Numeric() bool {
	switch k {
	case KindU16, KindI16, KindU32, KindI32:
		return true
	case KindText, KindUnknown:
		return false
	}
	return false
}

// Value is one decoded register value. The zero Value is Unknown(0).
type Value struct {
	kind Kind
	bits uint32
	text string
}

func U16(v uint16) Value     { return Value{kind: KindU16, bits: uint32(v)} }
func I16(v int16) Value      { return Value{kind: KindI16, bits: uint32(uint16(v))} }
func U32(v uint32) Value     { return Value{kind: KindU32, bits: v} }
func I32(v int32) Value      { return Value{kind: KindI32, bits: uint32(v)} }
func Text(s string) Value    { return Value{kind: KindText, text: s} }
func Unknown(w uint16) Value { return Value{kind: KindUnknown, bits: uint32(w)} }

// Zero returns the placeholder value a reading of kind k starts with.
func Zero(k Kind) Value {
	switch k {
	case KindU16:
		return U16(0)
	case KindI16:
		return I16(0)
	case KindU32:
		return U32(0)
	case KindI32:
		return I32(0)
	case KindText:
		return Text("")
	case KindUnknown:
		return Unknown(0)
	}
	return Unknown(0)
}

func (v Value) Kind() Kind { return v.kind }

// Int returns the raw integer of a numeric value.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindU16:
		return int64(uint16(v.bits)), true
	case KindI16:
		return int64(int16(uint16(v.bits))), true
	case KindU32:
		return int64(v.bits), true
	case KindI32:
		return int64(int32(v.bits)), true
	case KindText, KindUnknown:
		return 0, false
	}
	return 0, false
}

// Str returns the decoded text of a Text value.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// Word returns the uninterpreted register of an Unknown value.
func (v Value) Word() (uint16, bool) {
	if v.kind != KindUnknown {
		return 0, false
	}
	return uint16(v.bits), true
}

func (v Value) String() string {
	switch v.kind {
	case KindU16, KindI16, KindU32, KindI32:
		n, _ := v.Int()
		return strconv.FormatInt(n, 10)
	case KindText:
		return strconv.Quote(v.text)
	case KindUnknown:
		return fmt.Sprintf("0x%04x", uint16(v.bits))
	}
	return "?"
}

// PhysicalValue scales a numeric value into its physical unit (raw / gain).
func PhysicalValue(v Value, gain uint16) (float64, error) {
	if gain == 0 {
		return 0, ErrZeroGain
	}
	switch v.kind {
	case KindU16, KindI16, KindU32, KindI32:
		n, _ := v.Int()
		return float64(n) / float64(gain), nil
	case KindText, KindUnknown:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, v.kind)
	}
	return 0, fmt.Errorf("%w: %s", ErrNotNumeric, v.kind)
}
