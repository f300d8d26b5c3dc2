// Package response decodes and validates raw HTTP responses against the
// compiled service model of the operation that produced them.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/svclabs/swaggersvc/internal/model"
)

// Raw is the neutral view of an HTTP response the handler consumes. It
// deliberately avoids any client framework's native types.
type Raw struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decoder turns a raw response into a decoded value. Custom decoders are
// registered by identifier at configuration time; the builder refuses to
// compile an operation whose contract names an identifier with no entry in
// the decoder table.
type Decoder interface {
	DecodeResponse(op *model.Operation, raw *Raw) (any, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(op *model.Operation, raw *Raw) (any, error)

func (f DecoderFunc) DecodeResponse(op *model.Operation, raw *Raw) (any, error) {
	return f(op, raw)
}

// ModelView is the capability a custom decoder's output exposes to remain
// eligible for shape validation. Outputs without it bypass validation.
type ModelView interface {
	ModelView() map[string]any
}

// Builtins returns the built-in decoder table. "raw" passes the response
// through untouched; "json" decodes the body generically.
func Builtins() map[string]Decoder {
	return map[string]Decoder{
		"raw": DecoderFunc(func(_ *model.Operation, raw *Raw) (any, error) {
			return raw, nil
		}),
		"json": DecoderFunc(func(_ *model.Operation, raw *Raw) (any, error) {
			if len(raw.Body) == 0 {
				return nil, nil
			}
			var v any
			if err := json.Unmarshal(raw.Body, &v); err != nil {
				return nil, err
			}
			return v, nil
		}),
	}
}
