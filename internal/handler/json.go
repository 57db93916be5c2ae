package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/order-valuation/internal/domain/order"
	"github.com/xenking/order-valuation/internal/domain/product"
)

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

func readBody(w http.ResponseWriter, r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(errBadRequest, err.Error())
	}
	return jx.DecodeBytes(data), nil
}

// decodeObject walks a JSON object, handing each known field to its decoder
// and skipping the rest.
func decodeObject(d *jx.Decoder, fields map[string]func(*jx.Decoder) error) error {
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		fn, ok := fields[string(key)]
		if !ok {
			return d.Skip()
		}
		if err := fn(d); err != nil {
			return errors.Wrap(err, string(key))
		}
		return nil
	}); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

func decodeIDs(d *jx.Decoder) ([]int64, error) {
	var ids []int64
	err := d.Arr(func(d *jx.Decoder) error {
		id, err := d.Int64()
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

func decodeItems(d *jx.Decoder) ([]order.OrderItem, error) {
	items := []order.OrderItem{}
	err := d.Arr(func(d *jx.Decoder) error {
		var item order.OrderItem
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "productId":
				item.ProductID, err = d.Int64()
			case "quantity":
				item.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func encodeProducts(e *jx.Encoder, products []product.Product) {
	e.ArrStart()
	for _, p := range products {
		p.EncodeJSON(e)
	}
	e.ArrEnd()
}

func encodeTotal(e *jx.Encoder, total decimal.Decimal) {
	e.ObjStart()
	e.FieldStart("total")
	e.Num(jx.Num(total.String()))
	e.ObjEnd()
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// fail maps err to a response. Decoding errors become 400; anything else is
// logged and reported as 500 without details.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
