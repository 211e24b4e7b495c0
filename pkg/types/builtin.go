package types

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// timerDescriptor decodes/encodes the Rockwell builtin TIMER structure
// (TON/TOF/RTO) through cip.Timer, the concrete decoder for its documented
// 14-byte memory layout, rather than re-deriving that layout generically
// member by member. The map[string]any shape matches Struct's own
// DecodeAt/EncodeAt contract, so callers can't tell a TIMER apart from a
// downloaded UDT.
type timerDescriptor struct{}

func (timerDescriptor) Size() int { return 14 }

func (timerDescriptor) Code() cip.DataType { return cip.TypeSTRUCT }

func (timerDescriptor) EncodeAt(out []byte, off int, value any) error {
	fields, ok := value.(map[string]any)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("TIMER expects map[string]any, got %T", value)}
	}
	t := &cip.Timer{}
	if v, present := fields["PRE"]; present {
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("TIMER.PRE: %w", err)
		}
		t.PRE = int32(n)
	}
	if v, present := fields["ACC"]; present {
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("TIMER.ACC: %w", err)
		}
		t.ACC = int32(n)
	}
	for name, dst := range map[string]*bool{"EN": &t.EN, "TT": &t.TT, "DN": &t.DN} {
		v, present := fields[name]
		if !present {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("TIMER.%s expects bool, got %T", name, v)}
		}
		*dst = b
	}

	encoded, err := t.MarshalCIP()
	if err != nil {
		return err
	}
	copy(out[off:off+14], encoded)
	return nil
}

func (timerDescriptor) DecodeAt(data []byte, off int) (any, error) {
	t, err := cip.DecodeTimer(data[off:])
	if err != nil {
		return nil, err
	}
	return map[string]any{"EN": t.EN, "TT": t.TT, "DN": t.DN, "PRE": t.PRE, "ACC": t.ACC}, nil
}

// counterDescriptor is timerDescriptor's counterpart for COUNTER (CTU/CTD),
// decoding/encoding through cip.Counter.
type counterDescriptor struct{}

func (counterDescriptor) Size() int { return 14 }

func (counterDescriptor) Code() cip.DataType { return cip.TypeSTRUCT }

func (counterDescriptor) EncodeAt(out []byte, off int, value any) error {
	fields, ok := value.(map[string]any)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("COUNTER expects map[string]any, got %T", value)}
	}
	c := &cip.Counter{}
	if v, present := fields["PRE"]; present {
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("COUNTER.PRE: %w", err)
		}
		c.PRE = int32(n)
	}
	if v, present := fields["ACC"]; present {
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("COUNTER.ACC: %w", err)
		}
		c.ACC = int32(n)
	}
	for name, dst := range map[string]*bool{"CU": &c.CU, "CD": &c.CD, "DN": &c.DN, "OV": &c.OV, "UN": &c.UN} {
		v, present := fields[name]
		if !present {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("COUNTER.%s expects bool, got %T", name, v)}
		}
		*dst = b
	}

	encoded, err := c.MarshalCIP()
	if err != nil {
		return err
	}
	copy(out[off:off+14], encoded)
	return nil
}

func (counterDescriptor) DecodeAt(data []byte, off int) (any, error) {
	c, err := cip.DecodeCounter(data[off:])
	if err != nil {
		return nil, err
	}
	return map[string]any{"CU": c.CU, "CD": c.CD, "DN": c.DN, "OV": c.OV, "UN": c.UN, "PRE": c.PRE, "ACC": c.ACC}, nil
}
