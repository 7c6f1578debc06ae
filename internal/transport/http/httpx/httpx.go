// Package httpx holds the request decoding and response writing helpers
// shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/listing"
)

// DateLayout is the format of date query parameters.
const DateLayout = "2006-01-02"

var (
	validate     = newValidator()
	queryDecoder = newQueryDecoder()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "schema"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}

		return f.Name
	})

	return v
}

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Error writing response", "error", err)
	}
}

// StatusOf maps an error to the HTTP status of its kind.
func StatusOf(err error) int {
	switch errs.Kind(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errorCodes = map[int]string{
	http.StatusBadRequest:          "validation_error",
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "conflict",
	http.StatusInternalServerError: "internal_error",
}

// WriteError writes err with the status of its kind. Internal errors are
// logged and their text is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	resp := ErrorResponse{
		Error:   errorCodes[status],
		Message: err.Error(),
	}

	var fieldErr *errs.FieldError
	if errors.As(err, &fieldErr) {
		resp.Field = fieldErr.Field
		resp.Message = fieldErr.Reason
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		resp.Message = "internal server error"
	} else {
		slog.InfoContext(r.Context(), "Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	WriteJSON(w, r, status, resp)
}

// Validate runs the struct validation rules of v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "failed on the '" + fe.Tag() + "' rule"
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}

		return errs.NewFieldError(fe.Field(), reason)
	}

	return fmt.Errorf("failed to validate request: %w", err)
}

// DecodeJSON decodes the request body into dst and validates it.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.NewFieldError("body", "malformed JSON: "+err.Error())
	}

	return Validate(dst)
}

// DecodeQuery decodes the URL query into dst and validates it.
func DecodeQuery(r *http.Request, dst any) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for field, ferr := range multi {
				return errs.NewFieldError(field, ferr.Error())
			}
		}

		return errs.NewFieldError("query", err.Error())
	}

	return Validate(dst)
}

// ListQuery holds the common list parameters.
type ListQuery struct {
	Search   string `schema:"search"`
	FromDate string `schema:"fromDate" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `schema:"toDate"   validate:"omitempty,datetime=2006-01-02"`
	Page     int    `schema:"page"     validate:"gte=0"`
	PageSize int    `schema:"pageSize" validate:"gte=0"`
	OrderBy  string `schema:"orderBy"  validate:"omitempty,oneof=asc desc ASC DESC"`
}

// Filter converts the query into a listing filter. Dates are read in the
// server's local time zone.
func (q ListQuery) Filter() (listing.Filter, error) {
	f := listing.Filter{
		Search:      strings.TrimSpace(q.Search),
		Page:        q.Page,
		PageSize:    q.PageSize,
		OrderByDesc: strings.EqualFold(q.OrderBy, "desc"),
	}

	var err error
	if f.From, err = ParseDate("fromDate", q.FromDate); err != nil {
		return listing.Filter{}, err
	}
	if f.To, err = ParseDate("toDate", q.ToDate); err != nil {
		return listing.Filter{}, err
	}

	return f, nil
}

// ParseDate parses an optional date parameter.
func ParseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return nil, errs.NewFieldError(field, "must be a date in "+DateLayout+" format")
	}

	return &t, nil
}
