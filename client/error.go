package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/adamwoolhether/apicall/client/call"
)

// maxErrBodySize caps the amount of response body kept when
// building an error for an unexpected status code.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrInvalidURL is matched by every [InvalidURLError].
	ErrInvalidURL = errors.New("invalid url")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrDecoding is matched by every [DecodingError].
	ErrDecoding = errors.New("decoding failed")
	// ErrUnknown is matched by every [UnknownError].
	ErrUnknown = errors.New("unknown failure")
)

// Kind identifies which member of the error taxonomy a failure belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidURL
	KindResponse
	KindDecoding
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "InvalidURL"
	case KindResponse:
		return "ResponseError"
	case KindDecoding:
		return "DecodingError"
	default:
		return "Unknown"
	}
}

// KindOf reports the taxonomy member of err. A nil error, or one
// that was never classified, reports KindUnknown.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return KindInvalidURL
	case errors.Is(err, ErrUnexpectedStatusCode):
		return KindResponse
	case errors.Is(err, ErrDecoding):
		return KindDecoding
	default:
		return KindUnknown
	}
}

// InvalidURLError is returned when a request target cannot be formed.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrInvalidURL, e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() []error {
	return []error{ErrInvalidURL, e.Err}
}

// UnexpectedStatusError is returned when the HTTP response status code
// falls outside of 200-299.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// DecodingError is returned when a successful response body does not
// match the shape of the requested type.
//
// Field and Offset are filled when the decoder could locate the
// mismatch; Detail always describes it.
type DecodingError struct {
	Target string
	Field  string
	Offset int64
	Detail string
	Err    error
}

func (e *DecodingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v into %s", ErrDecoding, e.Target)
	if e.Field != "" {
		fmt.Fprintf(&b, ", field %q", e.Field)
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, ", offset %d", e.Offset)
	}
	fmt.Fprintf(&b, ": %s", e.Detail)

	return b.String()
}

func (e *DecodingError) Unwrap() []error {
	return []error{ErrDecoding, e.Err}
}

// UnknownError covers transport failures, cancellation and anything
// else not matching the other members of the taxonomy.
type UnknownError struct {
	Op  string
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrUnknown, e.Op, e.Err)
}

func (e *UnknownError) Unwrap() []error {
	return []error{ErrUnknown, e.Err}
}

// classify maps err into exactly one taxonomy member.
// Errors that already belong to the taxonomy are returned untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		urlErr    *InvalidURLError
		statusErr *UnexpectedStatusError
		decodeErr *DecodingError
		unknown   *UnknownError
	)
	switch {
	case errors.As(err, &urlErr), errors.As(err, &statusErr), errors.As(err, &decodeErr), errors.As(err, &unknown):
		return err
	case errors.Is(err, call.ErrQueueShutdown):
		return &UnknownError{Op: "admit", Err: err}
	default:
		return &UnknownError{Op: op, Err: err}
	}
}

// statusError builds the ResponseError for a non-2xx response.
func statusError(resp *Response) error {
	body := resp.Body
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	sentinel := ErrUnexpectedStatusCode
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		sentinel = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Err:        sentinel,
	}
}

// decodeError describes the structural mismatch behind a json failure.
func decodeError(target reflect.Type, err error) *DecodingError {
	de := &DecodingError{
		Target: typeName(target),
		Detail: err.Error(),
		Err:    err,
	}

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		fieldErrs FieldErrors
	)
	switch {
	case errors.As(err, &typeErr):
		de.Field = typeErr.Field
		de.Offset = typeErr.Offset
		de.Detail = fmt.Sprintf("cannot use json %s as %s", typeErr.Value, typeErr.Type)
	case errors.As(err, &syntaxErr):
		de.Offset = syntaxErr.Offset
	case errors.As(err, &fieldErrs):
		if len(fieldErrs) > 0 {
			de.Field = fieldErrs[0].Field
		}
	}

	return de
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "interface {}"
	}
	return t.String()
}
