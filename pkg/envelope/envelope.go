// Package envelope describes one outgoing host call: identity, path,
// method and parameters, plus its JSON wire form.
//
// Wire form:
//
//	{"path": "user/profile", "id": "A5B90E40-...", "parameters": {"userId": 12345}}
//
// "parameters" is left out entirely when there are none. The method is
// not part of the JSON; it travels as its own host-call argument.
package envelope

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joeydtaylor/steeze-bridge/pkg/codec"
	"github.com/joeydtaylor/steeze-bridge/pkg/dynvalue"
)

// NameSeparator joins path, identity and method in CompositeName.
const NameSeparator = "_"

var (
	ErrMissingID = errors.New("envelope: missing id")
	// ErrInvalidText rejects path or identity text that JSON would rewrite.
	ErrInvalidText = errors.New("envelope: text is not valid UTF-8")
)

// Envelope is immutable once built; Parameters must not be mutated.
type Envelope struct {
	ID         string
	Path       string
	Method     Method
	Parameters map[string]dynvalue.Value
}

type wire struct {
	Path       string                    `json:"path"`
	ID         string                    `json:"id"`
	Parameters map[string]dynvalue.Value `json:"parameters,omitempty"`
}

// NewIdentity returns a fresh random identity in the upper-case UUID
// form the host already echoes back.
func NewIdentity() string {
	return strings.ToUpper(uuid.NewString())
}

// New builds an envelope with a fresh identity from already-typed parameters.
func New(path string, method Method, params map[string]dynvalue.Value) Envelope {
	return Envelope{
		ID:         NewIdentity(),
		Path:       path,
		Method:     method,
		Parameters: params,
	}
}

// Build validates native parameters at construction, so an envelope that
// exists can always be encoded.
func Build(path string, method Method, params map[string]any) (Envelope, error) {
	if !method.Valid() {
		return Envelope{}, fmt.Errorf("envelope: unknown method %q", method)
	}
	vals, err := dynvalue.FromMap(params)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope %s %s: %w", method, path, err)
	}
	return New(path, method, vals), nil
}

// Encode renders the wire JSON. An empty parameter map is treated the
// same as no parameters.
func (e Envelope) Encode() (string, error) {
	if e.ID == "" {
		return "", ErrMissingID
	}
	if !utf8.ValidString(e.ID) || !utf8.ValidString(e.Path) {
		return "", ErrInvalidText
	}
	for k := range e.Parameters {
		if !utf8.ValidString(k) {
			return "", fmt.Errorf("%w: parameter key %q is not valid UTF-8", dynvalue.ErrUnsupportedParameterType, k)
		}
	}
	return codec.MarshalString(codec.JSONStrict, wire{
		Path:       e.Path,
		ID:         e.ID,
		Parameters: e.Parameters,
	})
}

// CompositeName is the legacy "<path>_<id>_<method>" event name.
func (e Envelope) CompositeName() string {
	return CompositeName(e.Path, e.ID, string(e.Method))
}

// CompositeName joins the raw callback fields the way the host names events.
func CompositeName(path, id, method string) string {
	return strings.Join([]string{path, id, method}, NameSeparator)
}

// Decode parses wire JSON back into an envelope. The method is not on
// the wire and must be supplied by the caller.
func Decode(data []byte, method Method) (Envelope, error) {
	var w wire
	if err := codec.JSONStrict.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("envelope: %w", err)
	}
	if w.ID == "" {
		return Envelope{}, ErrMissingID
	}
	return Envelope{
		ID:         w.ID,
		Path:       w.Path,
		Method:     method,
		Parameters: w.Parameters,
	}, nil
}

func (e Envelope) String() string {
	return fmt.Sprintf("%s %s (%s)", e.Method, e.Path, e.ID)
}
