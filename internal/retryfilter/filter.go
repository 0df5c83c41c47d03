// Package retryfilter decides whether a failed remote call qualifies for a
// retry. The decision is built from three rule sets: API error codes,
// transport status codes and error kinds.
package retryfilter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/MrSnakeDoc/metafetch/internal/apierr"
	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/utils"
)

// MaxCauseDepth bounds the cause walk of the kind check. Chains deeper than
// this, including cyclic ones, stop matching instead of looping.
const MaxCauseDepth = 32

var ErrConfiguration = errors.New("invalid retry filter configuration")

// ConfigError reports a malformed configuration entry.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retry filter: %s: invalid entry %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("retry filter: %s: invalid entry %q", e.Field, e.Value)
}

func (e *ConfigError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// Filter is immutable once built and safe for concurrent use.
type Filter struct {
	errorCodes  map[string]struct{}
	statusCodes map[int]struct{}
	kinds       map[apierr.Kind]struct{}
}

type Option func(*options)

type options struct {
	registry *Registry
}

// WithRegistry resolves kind names against r instead of the built-ins.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// New parses the three ';'-delimited rule strings. Empty strings produce
// empty rules. Unparsable status codes and unknown kind names fail here
// rather than at match time.
func New(errorCodes, kinds, statusCodes string, opts ...Option) (*Filter, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}

	f := &Filter{
		errorCodes:  make(map[string]struct{}),
		statusCodes: make(map[int]struct{}),
		kinds:       make(map[apierr.Kind]struct{}),
	}

	for _, c := range ParseErrorCodes(errorCodes) {
		f.errorCodes[c] = struct{}{}
	}

	codes, err := ParseStatusCodes(statusCodes)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		f.statusCodes[c] = struct{}{}
	}

	ks, err := ParseKinds(kinds, o.registry)
	if err != nil {
		return nil, err
	}
	for _, k := range ks {
		f.kinds[k] = struct{}{}
	}

	return f, nil
}

// FromConfig builds a filter from the retry section of the configuration.
func FromConfig(c config.RetryConfig, opts ...Option) (*Filter, error) {
	return New(c.TriggerErrorCodes, c.TriggerExceptions, c.TriggerStatusCodes, opts...)
}

func ParseErrorCodes(s string) []string {
	return utils.SplitList(s, config.ListSeparator)
}

func ParseStatusCodes(s string) ([]int, error) {
	tokens := utils.SplitList(s, config.ListSeparator)
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &ConfigError{Field: "trigger_status_codes", Value: tok, Err: err}
		}
		out = append(out, n)
	}
	return out, nil
}

func ParseKinds(s string, r *Registry) ([]apierr.Kind, error) {
	if r == nil {
		r = NewRegistry()
	}
	tokens := utils.SplitList(s, config.ListSeparator)
	out := make([]apierr.Kind, 0, len(tokens))
	for _, tok := range tokens {
		k, ok := r.Resolve(tok)
		if !ok {
			return nil, &ConfigError{Field: "trigger_exceptions", Value: tok, Err: errors.New("unknown exception kind")}
		}
		out = append(out, k)
	}
	return out, nil
}

// Empty reports whether no rule is configured. An empty filter never matches.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.errorCodes) == 0 && len(f.statusCodes) == 0 && len(f.kinds) == 0)
}

// Matches reports whether err qualifies for a retry.
//
// Type checks are made on the error value itself, not through errors.As:
// an API error and the transport error it wraps are classified separately.
func (f *Filter) Matches(err error) bool {
	if err == nil || f.Empty() {
		return false
	}

	apiErr, isAPI := err.(*apierr.APIError)
	isAPI = isAPI && apiErr != nil

	if isAPI && len(f.errorCodes) > 0 {
		for _, d := range apiErr.Errors {
			if d.Severity != apierr.SeverityError {
				continue
			}
			if _, ok := f.errorCodes[d.Code]; ok {
				return true
			}
		}
	}

	// Transport failures arrive wrapped in an API error. Classify the inner
	// one from here on.
	if isAPI {
		if inner, ok := apiErr.Err.(*apierr.HTTPError); ok && inner != nil {
			err = inner
		}
	}

	if httpErr, ok := err.(*apierr.HTTPError); ok && httpErr != nil && len(f.statusCodes) > 0 {
		if _, hit := f.statusCodes[httpErr.StatusCode]; hit {
			return true
		}
	}

	if len(f.kinds) > 0 && f.matchesKind(err) {
		return true
	}

	return false
}

// matchesKind walks the cause tree breadth first, following both single
// and joined causes, down to MaxCauseDepth levels.
func (f *Filter) matchesKind(err error) bool {
	level := []error{err}
	for depth := 0; len(level) > 0 && depth < MaxCauseDepth; depth++ {
		var next []error
		for _, e := range level {
			if e == nil {
				continue
			}
			if k, ok := apierr.KindOf(e); ok {
				if _, hit := f.kinds[k]; hit {
					return true
				}
			}
			switch u := e.(type) {
			case interface{ Unwrap() []error }:
				next = append(next, u.Unwrap()...)
			case interface{ Unwrap() error }:
				next = append(next, u.Unwrap())
			}
		}
		level = next
	}
	return false
}

func (f *Filter) ErrorCodes() []string {
	out := make([]string, 0, len(f.errorCodes))
	for c := range f.errorCodes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (f *Filter) StatusCodes() []int {
	out := make([]int, 0, len(f.statusCodes))
	for c := range f.statusCodes {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

func (f *Filter) Kinds() []apierr.Kind {
	out := make([]apierr.Kind, 0, len(f.kinds))
	for k := range f.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
