package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/journal-service/internal/apperr"
)

type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// GeneralError builds the error envelope. Internal errors are reported with a
// fixed message.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Code:   apperr.Code(err),
		Error:  apperr.Message(err),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errorMessages string
	for _, err := range errs {
		errorMessages += err.Field() + ": " + err.Tag() + "; "
	}

	return Response{
		Status: StatusError,
		Code:   apperr.Code(apperr.ErrValidation),
		Error:  errorMessages,
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// Error writes err with the status its kind maps to. Internal errors are
// logged with attrs, since the client only sees a fixed message.
func Error(w http.ResponseWriter, err error, attrs ...slog.Attr) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		WriteJSON(w, http.StatusBadRequest, ValidationError(ve))
		return
	}

	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		attrs = append(attrs, slog.String("error", err.Error()))
		slog.LogAttrs(context.Background(), slog.LevelError, "Request failed", attrs...)
	}
	WriteJSON(w, status, GeneralError(err))
}

// DecodeJSON reads the request body into v and validates it. Every failure is
// an apperr.ErrValidation, or the validator's own errors wrapped in one.
func DecodeJSON(r *http.Request, v interface{}) error {
	return decode(r, v, false)
}

// DecodeJSONStrict is DecodeJSON that also rejects unknown keys.
func DecodeJSONStrict(r *http.Request, v interface{}) error {
	return decode(r, v, true)
}

func decode(r *http.Request, v interface{}, strict bool) error {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}

	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body cannot be empty", apperr.ErrValidation)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %s must be of type %s", apperr.ErrValidation, typeErr.Field, typeErr.Type)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, strings.TrimPrefix(err.Error(), "json: "))
	}

	return Validate(v)
}

// Validate runs the struct tags of v.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return validationFailure{errs: ve}
	}
	return fmt.Errorf("%w: %s", apperr.ErrValidation, err)
}

// validationFailure keeps the field errors for the response while matching
// apperr.ErrValidation.
type validationFailure struct {
	errs validator.ValidationErrors
}

func (v validationFailure) Error() string {
	return fmt.Sprintf("%s: %s", apperr.ErrValidation, v.errs.Error())
}

func (v validationFailure) Is(target error) bool {
	return target == apperr.ErrValidation
}

func (v validationFailure) As(target interface{}) bool {
	if ve, ok := target.(*validator.ValidationErrors); ok {
		*ve = v.errs
		return true
	}
	return false
}
