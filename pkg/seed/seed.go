package seed

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Kind selects how a seed is applied to a response.
type Kind string

const (
	// KindOperation seeds carry a partial {data, errors} override.
	KindOperation Kind = "operation"
	// KindNetworkError seeds replace the response with their payload and status.
	KindNetworkError Kind = "networkError"
)

// ParseKind parses a seed kind. Matching is case-insensitive; an empty string
// is KindOperation.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "operation":
		return KindOperation, nil
	case "networkerror", "network_error", "network-error":
		return KindNetworkError, nil
	default:
		return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown seed kind %q", s)}
	}
}

// DefaultStatusCode returns the status a seed of kind k answers with when
// none is configured.
func (k Kind) DefaultStatusCode() int {
	if k == KindNetworkError {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// UnlimitedUses marks a seed that is never exhausted.
const UnlimitedUses = -1

// Input is the author-supplied part of a seed.
type Input struct {
	// OperationName is the operation the seed applies to.
	OperationName string `json:"operationName" yaml:"operationName"`
	// MatchArguments is the partial variable structure a call must match.
	MatchArguments map[string]any `json:"matchArguments,omitempty" yaml:"matchArguments,omitempty"`
	// SeedResponse is {data?, errors?} for operation seeds and an arbitrary
	// payload for network error seeds.
	SeedResponse any `json:"seedResponse,omitempty" yaml:"seedResponse,omitempty"`
}

// OptionsInput holds the optional seed settings. Nil fields take defaults.
type OptionsInput struct {
	UsesLeft         *int  `json:"usesLeft,omitempty" yaml:"usesLeft,omitempty"`
	PartialArgsMatch *bool `json:"partialArgsMatch,omitempty" yaml:"partialArgsMatch,omitempty"`
	StatusCode       *int  `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
}

// Options are the resolved seed settings.
type Options struct {
	// UsesLeft is the number of remaining matches, or UnlimitedUses.
	UsesLeft int `json:"usesLeft"`
	// PartialArgsMatch disables the exact key count rule.
	PartialArgsMatch bool `json:"partialArgsMatch"`
	// StatusCode is the HTTP status returned with the seeded response.
	StatusCode int `json:"statusCode"`
}

func (o OptionsInput) resolve(kind Kind) Options {
	opts := Options{
		UsesLeft:   UnlimitedUses,
		StatusCode: kind.DefaultStatusCode(),
	}
	if o.UsesLeft != nil {
		opts.UsesLeft = *o.UsesLeft
	}
	if o.PartialArgsMatch != nil {
		opts.PartialArgsMatch = *o.PartialArgsMatch
	}
	if o.StatusCode != nil {
		opts.StatusCode = *o.StatusCode
	}
	return opts
}

// overlay applies the non-nil fields of o to base.
func (o OptionsInput) overlay(base Options) Options {
	if o.UsesLeft != nil {
		base.UsesLeft = *o.UsesLeft
	}
	if o.PartialArgsMatch != nil {
		base.PartialArgsMatch = *o.PartialArgsMatch
	}
	if o.StatusCode != nil {
		base.StatusCode = *o.StatusCode
	}
	return base
}

// Seed is a validated, registered override.
type Seed struct {
	ID             string         `json:"id"`
	GroupID        string         `json:"groupId"`
	Kind           Kind           `json:"kind"`
	OperationName  string         `json:"operationName"`
	MatchArguments map[string]any `json:"matchArguments,omitempty"`
	Response       any            `json:"seedResponse,omitempty"`
	Options        Options        `json:"options"`
	CreatedAt      time.Time      `json:"createdAt"`

	patch *operationPatch
}

// operationPatch is the decoded seedResponse of an operation seed.
type operationPatch struct {
	data    map[string]any
	hasData bool
	errors  gqlerror.List
}

// Unlimited reports whether the seed never runs out of uses.
func (s *Seed) Unlimited() bool {
	return s.Options.UsesLeft == UnlimitedUses
}

// Matches reports whether the seed accepts the runtime arguments.
func (s *Seed) Matches(args map[string]any) bool {
	return Matches(s.MatchArguments, args, s.Options.PartialArgsMatch)
}

func (s *Seed) clone() *Seed {
	cp := *s
	return &cp
}
