package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shivfurniture/erp/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SetupValidator teaches gin's validator about JSON field names and money
// amounts. decimal.Decimal fields are validated as their float value, and the
// decimal_gt0 / decimal_gte0 tags check their sign exactly.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	RegisterValidations(v)
	return nil
}

// RegisterValidations installs the ERP field name and decimal rules on v
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("decimal_gt0", func(fl validator.FieldLevel) bool {
		return signOf(fl.Field()) > 0
	})
	_ = v.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		return signOf(fl.Field()) >= 0
	})
}

func signOf(field reflect.Value) int {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		}
		return 0
	case reflect.Struct:
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.Sign()
		}
	}
	return -1
}

// ValidationDetails converts binding errors to per-field messages. Errors
// that are not validator errors, such as malformed JSON, yield nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: messageFor(fe)})
	}
	return details
}

// fieldPath drops the top-level struct name: "CreateTransactionRequest.lines[0].quantity" → "lines[0].quantity"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "decimal_gt0":
		return "must be greater than 0"
	case "decimal_gte0":
		return "must not be negative"
	default:
		return "is invalid"
	}
}
