package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// EncodeJSON writes p as a JSON object. The value is written as a JSON
// number taken verbatim from the decimal representation.
func (p Product) EncodeJSON(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("value")
	e.Num(jx.Num(p.Value.String()))
	e.FieldStart("isSale")
	e.Bool(p.IsSale)
	e.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (p Product) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	p.EncodeJSON(&e)
	return e.Bytes(), nil
}

// DecodeJSON reads a product object from d. Unknown fields are skipped.
// The value may be given either as a JSON number or as a string.
func (p *Product) DecodeJSON(d *jx.Decoder) error {
	var seenID bool
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "id":
			v, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			p.ID = v
			seenID = true
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			p.Name = v
		case "category":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "category")
			}
			p.Category = v
		case "value":
			v, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "value")
			}
			p.Value = v
		case "isSale":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "isSale")
			}
			p.IsSale = v
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !seenID {
		return errors.New("product id is required")
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Product) UnmarshalJSON(data []byte) error {
	return p.DecodeJSON(jx.DecodeBytes(data))
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("unexpected %s", d.Next())
	}
}
