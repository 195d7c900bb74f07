package graphin

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/pkg/errors"

	"github.com/frux/graphin/internal/querytext"
)

// Location points at a line and column of the query text.
type Location = gqlerror.Location

// Error types
const (
	ErrorTypeConfiguration = "Configuration"
	ErrorTypeTransport     = "Transport"
	ErrorTypeDecode        = "Decode"
	ErrorTypeGraphQL       = "GraphQL"
)

// graphQLErrorHeader starts every aggregated message and trace.
const graphQLErrorHeader = "GraphQL error:"

// Sentinel errors for common failure scenarios
var (
	// ErrInvalidEndpoint is the cause of construction failures
	ErrInvalidEndpoint = stderrors.New("graphin: invalid endpoint")

	// ErrInvalidQuery is returned when the query text is not valid UTF-8
	ErrInvalidQuery = stderrors.New("graphin: query must be valid text")

	// ErrInvalidCacheStore is returned for unusable cache store settings
	ErrInvalidCacheStore = stderrors.New("graphin: invalid cache store")

	// ErrResponseTooLarge is the cause when a response body exceeds the transport limit
	ErrResponseTooLarge = stderrors.New("graphin: response body too large")

	// ErrGraphQL matches every *QueryError via errors.Is
	ErrGraphQL = stderrors.New("graphin: graphql error")
)

// ClientError reports configuration, transport and decode failures.
type ClientError struct {
	Type       string
	Message    string
	Cause      error
	Method     string
	URL        string
	StatusCode int
	Timestamp  time.Time
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Error Type: %s\n", e.Type)
	fmt.Fprintf(&b, "Message: %s\n", e.Message)
	if e.Method != "" {
		fmt.Fprintf(&b, "Method: %s\n", e.Method)
	}
	if e.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "Status Code: %d\n", e.StatusCode)
	}
	if !e.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "Cause: %v\n", e.Cause)
	}
	return b.String()
}

// QueryError merges every GraphQL error of one response into a single error.
type QueryError struct {
	// Message is the header followed by each error message, separated by blank lines.
	Message string
	// OriginalErrors holds one error per server error, carrying only its message.
	OriginalErrors []error
	// Errors are the server errors as received.
	Errors []GraphQLError
	// Data is any partial result sent alongside the errors.
	Data       json.RawMessage
	URL        string
	StatusCode int

	trace string
}

// NewQueryError aggregates apiErrors returned for the request at url.
func NewQueryError(apiErrors []GraphQLError, url string) *QueryError {
	query := querytext.FromURLNormalized(url)

	message := graphQLErrorHeader
	trace := graphQLErrorHeader
	originals := make([]error, 0, len(apiErrors))

	for _, apiErr := range apiErrors {
		locations, err := json.Marshal(apiErr.Locations)
		if err != nil {
			locations = []byte("null")
		}
		message += "\n\n" + apiErr.Message
		trace += "\n\n" + apiErr.Message + "\n" + query + "\n" + string(locations)
		originals = append(originals, errors.New(apiErr.Message))
	}

	return &QueryError{
		Message:        message,
		OriginalErrors: originals,
		Errors:         apiErrors,
		URL:            url,
		trace:          trace,
	}
}

func (e *QueryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Trace returns the message with the reindented query and the error
// locations attached to every entry.
func (e *QueryError) Trace() string {
	return e.trace
}

// Is matches ErrGraphQL and ClientError{Type: ErrorTypeGraphQL}.
func (e *QueryError) Is(target error) bool {
	if target == ErrGraphQL {
		return true
	}
	if targetErr, ok := target.(*ClientError); ok {
		return targetErr.Type == ErrorTypeGraphQL
	}
	return false
}

// GQLErrors converts the received errors to gqlparser errors.
func (e *QueryError) GQLErrors() gqlerror.List {
	list := make(gqlerror.List, 0, len(e.Errors))
	for _, apiErr := range e.Errors {
		list = append(list, &gqlerror.Error{
			Message:    apiErr.Message,
			Locations:  apiErr.Locations,
			Extensions: apiErr.Extensions,
		})
	}
	return list
}

// IsGraphQLError reports whether err carries server-side GraphQL errors.
func IsGraphQLError(err error) bool {
	var queryErr *QueryError
	return stderrors.As(err, &queryErr)
}

// IsConfigurationError reports whether err was caused by invalid input or settings.
func IsConfigurationError(err error) bool {
	var clientErr *ClientError
	return stderrors.As(err, &clientErr) && clientErr.Type == ErrorTypeConfiguration
}

func configurationError(message string, cause error) *ClientError {
	return &ClientError{
		Type:      ErrorTypeConfiguration,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
