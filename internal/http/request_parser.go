package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"chitfund/internal/core"
)

const maxBodyBytes = 1 << 16

// errMalformed marks requests that could not be decoded at all.
var errMalformed = errors.New("malformed request")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Amount accepts either a JSON number or a string such as "₹2,500".
type Amount struct {
	Value int64
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		a.Value = v
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("amount %s is not a whole number: %w", n, core.ErrInvalidArgument)
	}
	a.Value = v
	return nil
}

type recordPaymentRequest struct {
	Status string  `json:"status" validate:"required,oneof=paid partial unpaid"`
	Amount *Amount `json:"amount" validate:"required_if=Status partial"`
	Date   string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type updateMemberRequest struct {
	Field string `json:"field" validate:"required,oneof=name phone address"`
	Value string `json:"value" validate:"max=200"`
}

type sessionRequest struct {
	Month  *int `json:"month" validate:"omitempty,min=1"`
	Member *int `json:"member" validate:"omitempty,min=0"`
}

// decodeJSON reads a JSON body into dst and validates it. Decoding failures
// wrap errMalformed; validation failures wrap core.ErrInvalidArgument.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidArgument) {
			return err
		}
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%s: %w", describeValidation(err), core.ErrInvalidArgument)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// pathInt parses a numeric path segment.
func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errMalformed, name, raw)
	}
	return v, nil
}

// queryInt parses an optional numeric query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errMalformed, name, raw)
	}
	return v, nil
}

// sanitizeInput removes control characters except tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
