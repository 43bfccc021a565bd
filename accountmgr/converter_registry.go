package accountmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Converter turns input of one format into another (e.g., xml -> records -> markdown).
type Converter interface {
	From() string
	To() string
	Convert(ctx context.Context, input any, opts map[string]any) (any, error)
}

// ConverterRegistry is a threadsafe registry for converters.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewConverterRegistry builds an empty registry.
func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{converters: make(map[string]Converter)}
}

// ErrConverterExists indicates a duplicate registration attempt.
var ErrConverterExists = errors.New("converter already registered")

// Register adds a converter. Returns ErrConverterExists when a from->to pair already exists.
func (r *ConverterRegistry) Register(conv Converter) error {
	if conv == nil {
		return errors.New("converter is nil")
	}
	key := converterKey(conv.From(), conv.To())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.converters[key]; exists {
		return fmt.Errorf("%w: %s", ErrConverterExists, key)
	}
	r.converters[key] = conv
	return nil
}

// List returns descriptors for registered converters.
func (r *ConverterRegistry) List() []ConverterDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConverterDescriptor, 0, len(r.converters))
	for _, c := range r.converters {
		out = append(out, ConverterDescriptor{From: strings.ToLower(c.From()), To: strings.ToLower(c.To())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From == out[j].From {
			return out[i].To < out[j].To
		}
		return out[i].From < out[j].From
	})
	return out
}

// ConverterDescriptor captures a registered mapping.
type ConverterDescriptor struct {
	From string
	To   string
}

// Convert dispatches to a registered converter.
func (r *ConverterRegistry) Convert(ctx context.Context, from, to string, input any, opts map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := converterKey(from, to)
	r.mu.RLock()
	conv, ok := r.converters[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no converter for %s", key)
	}
	return conv.Convert(ctx, input, opts)
}

// DefaultConverterRegistry is pre-populated with the built-in converters.
var DefaultConverterRegistry = newDefaultConverterRegistry()

func newDefaultConverterRegistry() *ConverterRegistry {
	reg := NewConverterRegistry()
	registerDefaultConverters(reg)
	return reg
}

func converterKey(from, to string) string {
	return strings.ToLower(from) + "->" + strings.ToLower(to)
}

// parseOptionsFrom reads "lenient", "validate" and "logger" knobs.
func parseOptionsFrom(opts map[string]any) (ParseOptions, error) {
	var po ParseOptions
	if v, ok := opts["lenient"].(bool); ok {
		po.Lenient = v
	}
	if v, ok := opts["validate"].(bool); ok {
		po.Validate = v
	}
	if v, ok := opts["logger"]; ok {
		l, ok := v.(*zap.Logger)
		if !ok {
			return po, fmt.Errorf("logger must be *zap.Logger, got %T", v)
		}
		po.Logger = l
	}
	return po, nil
}

func recordsFrom(kind string, input any) ([]AccountManager, error) {
	switch v := input.(type) {
	case []AccountManager:
		return v, nil
	case AccountManager:
		return []AccountManager{v}, nil
	default:
		return nil, fmt.Errorf("%s converter expects AccountManager or []AccountManager, got %T", kind, input)
	}
}

func textFrom(kind string, input any) (string, error) {
	switch v := input.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%s converter expects string or []byte, got %T", kind, input)
	}
}

// registerDefaultConverters wires built-ins onto the provided registry.
func registerDefaultConverters(reg *ConverterRegistry) {
	// ignore duplicate errors to allow idempotent init in tests
	_ = reg.Register(basicConverter{
		from: "xml",
		to:   "records",
		fn: func(_ context.Context, input any, opts map[string]any) (any, error) {
			po, err := parseOptionsFrom(opts)
			if err != nil {
				return nil, err
			}
			switch v := input.(type) {
			case nil:
				return []AccountManager{}, nil
			case string:
				if v == "" {
					return []AccountManager{}, nil
				}
				return parseWithOptions(strings.NewReader(v), po)
			case []byte:
				if len(v) == 0 {
					return []AccountManager{}, nil
				}
				return parseWithOptions(strings.NewReader(string(v)), po)
			case io.Reader:
				return parseWithOptions(v, po)
			default:
				return nil, fmt.Errorf("xml->records converter expects string, []byte, or io.Reader, got %T", input)
			}
		},
	})
	_ = reg.Register(basicConverter{
		from: "records",
		to:   "xml",
		fn: func(_ context.Context, input any, opts map[string]any) (any, error) {
			list, err := recordsFrom("records->xml", input)
			if err != nil {
				return nil, err
			}
			eo := EncodeOptions{Indent: "  ", IncludeHeader: true}
			if v, ok := opts["indent"].(string); ok && v != "" {
				eo.Indent = v
			}
			if v, ok := opts["compact"].(bool); ok {
				eo.Compact = v
			}
			var sb strings.Builder
			if err := EncodeWithOptions(&sb, list, eo); err != nil {
				return nil, err
			}
			return sb.String(), nil
		},
	})
	for _, f := range []Format{FormatMarkdown, FormatOrg, FormatJSON, FormatText} {
		format := f
		_ = reg.Register(basicConverter{
			from: "records",
			to:   string(format),
			fn: func(_ context.Context, input any, _ map[string]any) (any, error) {
				list, err := recordsFrom("records->"+string(format), input)
				if err != nil {
					return nil, err
				}
				return ConvertToText(list, format)
			},
		})
	}
	for _, f := range []Format{FormatMarkdown, FormatOrg, FormatJSON} {
		format := f
		_ = reg.Register(basicConverter{
			from: string(format),
			to:   "records",
			fn: func(_ context.Context, input any, _ map[string]any) (any, error) {
				body, err := textFrom(string(format)+"->records", input)
				if err != nil {
					return nil, err
				}
				return ConvertFromText(body, format)
			},
		})
	}
}

type basicConverter struct {
	from string
	to   string
	fn   func(ctx context.Context, input any, opts map[string]any) (any, error)
}

func (c basicConverter) From() string { return c.from }
func (c basicConverter) To() string   { return c.to }
func (c basicConverter) Convert(ctx context.Context, input any, opts map[string]any) (any, error) {
	return c.fn(ctx, input, opts)
}
