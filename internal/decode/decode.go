// internal/decode/decode.go
package decode

import (
	"errors"
	"fmt"
	"time"

	"github.com/minemo/huion-solar-getter/internal/signal"
)

// ErrShortBlock means the register block holds fewer words than the
// group declares. Callers treat it like a failed read.
var ErrShortBlock = errors.New("decode: register block shorter than declared lengths")

// Value decodes the words belonging to a single signal.
// words must hold at least kind.Registers(len(words)) entries.
func Value(kind signal.Kind, words []uint16) (signal.Value, error) {
	if len(words) < int(kind.Registers(uint16(len(words)))) || len(words) == 0 {
		return signal.Value{}, fmt.Errorf("%w: %s needs more than %d words", ErrShortBlock, kind, len(words))
	}

	switch kind {
	case signal.KindU16:
		return signal.U16(words[0]), nil

	case signal.KindI16:
		return signal.I16(int16(words[0])), nil

	case signal.KindU32:
		return signal.U32(uint32(words[0])<<16 | uint32(words[1])), nil

	case signal.KindI32:
		// compose unsigned, reinterpret afterwards
		u := uint32(words[0])<<16 | uint32(words[1])
		return signal.I32(int32(u)), nil

	case signal.KindText:
		b := make([]byte, 0, 2*len(words))
		for _, w := range words {
			b = append(b, byte(w>>8), byte(w&0xFF))
		}
		return signal.Text(string(b)), nil

	case signal.KindUnknown:
		return signal.Unknown(words[0]), nil
	}

	return signal.Value{}, fmt.Errorf("decode: unsupported kind %s", kind)
}

// Group decodes a block read for g in group order and updates every reading
// in place. The word offset of each signal is the running sum of the lengths
// of the signals before it, never its register address.
//
// fetchedAt holds one timestamp per reading. On error no reading is changed.
func Group(g *signal.Group, words []uint16, fetchedAt []time.Time) error {
	if need := g.Words(); len(words) < need {
		return fmt.Errorf("%w: group %q has %d words, needs %d", ErrShortBlock, g.Name, len(words), need)
	}
	if len(fetchedAt) != len(g.Readings) {
		return fmt.Errorf("decode: group %q has %d timestamps for %d signals", g.Name, len(fetchedAt), len(g.Readings))
	}

	// decode everything first so a failure leaves the group untouched
	values := make([]signal.Value, len(g.Readings))
	cursor := 0
	for i, r := range g.Readings {
		v, err := Value(r.Kind, words[cursor:cursor+int(r.Length)])
		if err != nil {
			return fmt.Errorf("decode %q: %w", r.Name, err)
		}
		values[i] = v
		cursor += int(r.Length)
	}

	for i, r := range g.Readings {
		if err := r.Set(values[i], fetchedAt[i]); err != nil {
			return err
		}
	}
	return nil
}
