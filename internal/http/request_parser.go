// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, year/month query parameters and path values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

const maxBodyBytes = 1 << 20

var errInvalidYear = core.NewValidationError("year", "must be between 1 and 9999")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// ParseMonthParams extracts year and month from query parameters, using the
// month of now as default. Present but malformed values are rejected.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	year, err := ParseYearParam(query, now)
	if err != nil {
		return MonthParams{}, err
	}
	params := MonthParams{Year: year, Month: now.Month()}

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, core.ErrInvalidMonth
		}
		params.Month = time.Month(m)
	}
	return params, nil
}

// ParseYearParam extracts the year query parameter, defaulting to the year of now.
func ParseYearParam(query url.Values, now time.Time) (int, error) {
	v := strings.TrimSpace(query.Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	return parseYear(v)
}

// PathMonth reads the {year} and {month} path values of the request.
func PathMonth(r *http.Request) (MonthParams, error) {
	year, err := parseYear(r.PathValue("year"))
	if err != nil {
		return MonthParams{}, err
	}
	m, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || m < 1 || m > 12 {
		return MonthParams{}, core.ErrInvalidMonth
	}
	return MonthParams{Year: year, Month: time.Month(m)}, nil
}

func parseYear(v string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || y < 1 || y > 9999 {
		return 0, errInvalidYear
	}
	return y, nil
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected. It returns a ready error
// response, or nil on success.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) *JSONResponseBuilder {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		var verr *core.ValidationError
		switch {
		case errors.As(err, &verr):
			return UnprocessableEntityError(verr.Field, verr.Msg)
		case errors.As(err, &maxErr):
			return ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large")
		case errors.As(err, &typeErr):
			return BadRequestError(fmt.Sprintf("invalid value for field %q", typeErr.Field))
		case errors.Is(err, io.EOF):
			return BadRequestError("request body must not be empty")
		default:
			return BadRequestError("invalid JSON body")
		}
	}
	if dec.More() {
		return BadRequestError("request body must contain a single JSON object")
	}
	return nil
}

// parseDateField parses a YYYY-MM-DD value. An empty value yields the zero
// date when optional is set.
func parseDateField(field, value string, optional bool) (core.Date, error) {
	if strings.TrimSpace(value) == "" {
		if optional {
			return core.Date{}, nil
		}
		return core.Date{}, core.NewValidationError(field, "must be set")
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, core.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}
