package provider

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/kbukum/analyticskit/errors"
	"github.com/kbukum/analyticskit/util"
	"github.com/kbukum/analyticskit/validation"
)

const unresolvedOptions = "could not resolve options"

// Options is a provider's resolved configuration.
type Options map[string]any

// Get returns the raw value stored under key.
func (o Options) Get(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

// String returns the value under key converted to a string, or "".
func (o Options) String(key string) string {
	return cast.ToString(o[key])
}

// Bool returns the value under key converted to a bool. Strings such as
// "true" and "0" are understood.
func (o Options) Bool(key string) bool {
	return cast.ToBool(o[key])
}

// Clone returns a shallow copy.
func (o Options) Clone() Options {
	return Options(util.CopyMap(o))
}

// ResolveOptions turns raw caller configuration into Options for p.
//
// raw may be Options, map[string]any, map[string]string, or a bare string.
// A bare string is wrapped as {p.Key(): raw}; providers without a key reject
// it. Any other type, nil included, is rejected. Caller values are layered
// over p.Defaults().
func ResolveOptions(p Provider, raw any) (Options, error) {
	var caller map[string]any
	switch v := raw.(type) {
	case Options:
		caller = v
	case map[string]any:
		caller = v
	case map[string]string:
		caller = make(map[string]any, len(v))
		for k, s := range v {
			caller[k] = s
		}
	case string:
		if p.Key() == "" {
			return nil, errors.InvalidOptions(p.Name(), unresolvedOptions).
				WithDetail("reason", "provider declares no options key")
		}
		caller = map[string]any{p.Key(): v}
	default:
		return nil, errors.InvalidOptions(p.Name(), unresolvedOptions).
			WithDetail("type", fmt.Sprintf("%T", raw))
	}

	defaults := p.Defaults()
	return Options(util.MergeLayers(canonicalKeys(caller, defaults), defaults)), nil
}

// OptionsValidator is implemented by providers that can check resolved
// options without running any vendor setup.
type OptionsValidator interface {
	ValidateOptions(opts Options) error
}

// CheckOptions resolves raw for p and, when p is an OptionsValidator,
// validates the result. It has no side effects.
func CheckOptions(p Provider, raw any) (Options, error) {
	opts, err := ResolveOptions(p, raw)
	if err != nil {
		return nil, err
	}
	if v, ok := p.(OptionsValidator); ok {
		if err := v.ValidateOptions(opts.Clone()); err != nil {
			if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeInvalidOptions {
				return nil, appErr
			}
			return nil, errors.InvalidOptions(p.Name(), err.Error()).WithCause(err)
		}
	}
	return opts, nil
}

// canonicalKeys respells caller keys that match a default key ignoring case
// ("apikey" -> "apiKey"). Config loaders lower-case map keys. A key already
// spelled exactly wins over a case-folded duplicate. Between two folded
// duplicates the one sorting last wins.
func canonicalKeys(caller, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(caller))
	defaultKeys := util.SortedKeys(defaults)
	for _, k := range util.SortedKeys(caller) {
		if _, exact := defaults[k]; exact {
			continue
		}
		key := k
		for _, dk := range defaultKeys {
			if strings.EqualFold(k, dk) {
				key = dk
				break
			}
		}
		out[key] = caller[k]
	}
	for k, v := range caller {
		if _, exact := defaults[k]; exact {
			out[k] = v
		}
	}
	return out
}

// DecodeOptions decodes opts into a typed options struct and validates it
// with its `validate` tags. Field names match case-insensitively and scalar
// types are converted weakly ("10" decodes into an int).
func DecodeOptions[T any](provider string, opts Options) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, errors.Internal(err)
	}
	if err := dec.Decode(map[string]any(opts)); err != nil {
		return out, errors.InvalidOptions(provider, err.Error()).WithCause(err)
	}
	if err := validation.Validate(out); err != nil {
		return out, errors.InvalidOptions(provider, err.Error()).WithCause(err)
	}
	return out, nil
}
