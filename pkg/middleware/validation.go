package middleware

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/delivery-fee-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator initializes the shared validator instance
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Use JSON tag names so violations point at request fields
		validate.RegisterTagNameFunc(jsonFieldName)
	})

	return validate
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// Violation types reported in the detail list
const (
	ViolationMissing        = "missing"
	ViolationGreaterThan    = "greater_than"
	ViolationGreaterOrEqual = "greater_than_equal"
	ViolationIntType        = "int_type"
	ViolationIntFromFloat   = "int_from_float"
	ViolationDatetime       = "datetime_parsing"
	ViolationDictType       = "model_attributes_type"
	ViolationJSONInvalid    = "json_invalid"
	ViolationType           = "type_error"
	ViolationValue          = "value_error"
)

// MaxBodyBytes bounds the request body read by BindJSONFields
var MaxBodyBytes int64 = 64 << 10

var timeType = reflect.TypeOf(time.Time{})

// An int64 has at most 19 decimal digits
const maxInt64Digits = 19

// Accepted timestamp layouts, most specific first. Layouts without an
// offset are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp
func ParseTimestamp(s string) (time.Time, error) {
	// ISO-8601 allows a space in place of the T separator
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// BindJSONFields decodes the request body into obj field by field and runs
// struct validation. Every failing field is reported, not only the first.
// obj must be a pointer to a struct whose fields carry json tags.
func BindJSONFields(c *gin.Context, obj any) *errors.AppError {
	if c.Request.Body == nil {
		c.Request.Body = http.NoBody
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.ErrPayloadTooLarge(tooLarge.Limit)
		}
		return errors.ErrBadRequest("failed to read request body").Wrap(err)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	violations := DecodeFields(body, obj)
	if len(violations) > 0 {
		return errors.ErrUnprocessable("request validation failed", violations)
	}
	return nil
}

// DecodeFields decodes a JSON object into the struct pointed to by obj and
// returns the violations for every field that failed decoding or validation,
// in struct field order.
func DecodeFields(body []byte, obj any) []errors.FieldViolation {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []errors.FieldViolation{{
			Type:    ViolationMissing,
			Loc:     []string{"body"},
			Message: "Field required",
		}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		violation := errors.FieldViolation{
			Type:    ViolationDictType,
			Loc:     []string{"body"},
			Message: "Input should be a valid dictionary or object to extract fields from",
		}
		if !json.Valid(trimmed) {
			violation.Type = ViolationJSONInvalid
			violation.Message = "JSON decode error"
		}
		return []errors.FieldViolation{violation}
	}

	target := reflect.ValueOf(obj).Elem()
	targetType := target.Type()

	byField := make(map[string]errors.FieldViolation)
	var order []string

	for i := 0; i < targetType.NumField(); i++ {
		field := targetType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonFieldName(field)
		order = append(order, name)

		value, ok := raw[name]
		if !ok || string(bytes.TrimSpace(value)) == "null" {
			continue
		}

		if v := decodeField(target.Field(i), value, name); v != nil {
			byField[name] = *v
		}
	}

	if err := GetValidator().Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if ok := asValidationErrors(err, &validationErrors); ok {
			for _, fe := range validationErrors {
				if _, failed := byField[fe.Field()]; failed {
					continue
				}
				byField[fe.Field()] = violationFromFieldError(fe)
			}
		}
	}

	violations := make([]errors.FieldViolation, 0, len(byField))
	for _, name := range order {
		if v, ok := byField[name]; ok {
			violations = append(violations, v)
		}
	}
	return violations
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

func decodeField(field reflect.Value, value json.RawMessage, name string) *errors.FieldViolation {
	loc := []string{"body", name}

	// Allocate pointer targets so the decoded value has somewhere to go
	target := field
	if field.Kind() == reflect.Pointer {
		target = reflect.New(field.Type().Elem()).Elem()
	}

	var violation *errors.FieldViolation
	switch {
	case target.Type() == timeType:
		violation = decodeTime(target, value, loc)
	case isIntKind(target.Kind()):
		violation = decodeInt(target, value, loc)
	default:
		if err := json.Unmarshal(value, target.Addr().Interface()); err != nil {
			violation = &errors.FieldViolation{
				Type:    ViolationType,
				Loc:     loc,
				Message: "Input has an invalid type",
			}
		}
	}

	if violation != nil {
		return violation
	}

	if field.Kind() == reflect.Pointer {
		field.Set(target.Addr())
	}
	return nil
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

// decodeInt accepts JSON numbers with no fractional part, including 7.0 and
// 1e3. Quoted numbers are rejected.
func decodeInt(target reflect.Value, value json.RawMessage, loc []string) *errors.FieldViolation {
	text := string(bytes.TrimSpace(value))
	if text == "" || !(text[0] == '-' || (text[0] >= '0' && text[0] <= '9')) {
		return &errors.FieldViolation{Type: ViolationIntType, Loc: loc, Message: "Input should be a valid integer"}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return &errors.FieldViolation{Type: ViolationIntType, Loc: loc, Message: "Input should be a valid integer"}
	}

	if d.IsZero() {
		target.SetInt(0)
		return nil
	}

	// Bound the exponent before anything scales by a power of ten
	digits, exp := int64(d.NumDigits()), int64(d.Exponent())
	switch {
	case exp > 0 && digits+exp > maxInt64Digits:
		return &errors.FieldViolation{Type: ViolationIntType, Loc: loc, Message: "Input should be a valid integer, unable to parse value"}
	case exp < 0 && -exp > digits:
		return &errors.FieldViolation{
			Type:    ViolationIntFromFloat,
			Loc:     loc,
			Message: "Input should be a valid integer, got a number with a fractional part",
		}
	}

	if !d.IsInteger() {
		return &errors.FieldViolation{
			Type:    ViolationIntFromFloat,
			Loc:     loc,
			Message: "Input should be a valid integer, got a number with a fractional part",
		}
	}

	n := d.IntPart()
	if !d.Equal(decimal.NewFromInt(n)) || target.OverflowInt(n) {
		return &errors.FieldViolation{Type: ViolationIntType, Loc: loc, Message: "Input should be a valid integer, unable to parse value"}
	}

	target.SetInt(n)
	return nil
}

func decodeTime(target reflect.Value, value json.RawMessage, loc []string) *errors.FieldViolation {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return &errors.FieldViolation{Type: ViolationDatetime, Loc: loc, Message: "Input should be a valid datetime"}
	}

	t, err := ParseTimestamp(s)
	if err != nil {
		return &errors.FieldViolation{Type: ViolationDatetime, Loc: loc, Message: "Input should be a valid datetime, " + err.Error()}
	}

	target.Set(reflect.ValueOf(t))
	return nil
}

func violationFromFieldError(e validator.FieldError) errors.FieldViolation {
	loc := []string{"body", e.Field()}
	switch e.Tag() {
	case "required":
		return errors.FieldViolation{Type: ViolationMissing, Loc: loc, Message: "Field required"}
	case "gt":
		return errors.FieldViolation{Type: ViolationGreaterThan, Loc: loc, Message: "Input should be greater than " + e.Param()}
	case "gte":
		return errors.FieldViolation{Type: ViolationGreaterOrEqual, Loc: loc, Message: "Input should be greater than or equal to " + e.Param()}
	default:
		return errors.FieldViolation{Type: ViolationValue, Loc: loc, Message: "Value error, failed on " + e.Tag()}
	}
}

// ContentType rejects non-JSON bodies on POST/PUT/PATCH
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "PATCH" {
			contentType := c.GetHeader("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") && c.Request.ContentLength > 0 {
				AbortWithAppError(c, &errors.AppError{
					Code:       "INVALID_CONTENT_TYPE",
					Message:    "Content-Type must be application/json",
					HTTPStatus: 415,
				})
				return
			}
		}
		c.Next()
	}
}
