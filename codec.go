package exprjson

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/hengadev/exprjson/ast"
	"github.com/hengadev/exprjson/internal/codec"
	"github.com/hengadev/exprjson/internal/config"
	"github.com/hengadev/exprjson/internal/document"
	"github.com/hengadev/exprjson/internal/monitoring"
	"github.com/hengadev/exprjson/internal/typeinfo"
	"github.com/hengadev/exprjson/internal/visitor"
)

// EnumMember names one value of a registered enum.
type EnumMember = typeinfo.EnumMember

// Codec reads and writes expression documents. It is safe for concurrent
// use.
type Codec struct {
	cfg       *config.Config
	types     *typeinfo.Registry
	values    *codec.Codec
	visitor   *visitor.Visitor
	validator *validatorHolder
	hook      monitoring.ObservabilityHook
}

// New builds a Codec from the defaults and opts.
func New(opts ...Option) (*Codec, error) {
	cfg := config.DefaultConfig()
	if err := config.ApplyOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := config.NewValidator().ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	types := typeinfo.NewRegistry(cfg.TypeNameConvention)
	values := codec.New(types, codec.Options{
		AddComments: cfg.AddComments,
		Identifiers: cfg.IdentifierConvention,
		Format:      cfg.ObjectFormat,
	})
	return &Codec{
		cfg:       cfg,
		types:     types,
		values:    values,
		visitor:   visitor.New(values),
		validator: newValidatorHolder(cfg.SchemaValidator),
		hook: monitoring.NewCompositeObservabilityHook(
			cfg.ObservabilityHook,
			monitoring.NewMetricsObservabilityHook(cfg.MetricsCollector),
		),
	}, nil
}

// NewFromConfig validates cfg and builds a Codec from it. opts are applied
// after the configuration.
func NewFromConfig(cfg Config, opts ...Option) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return New(append(base, opts...)...)
}

// RegisterType makes named types, and the named types they are built from,
// resolvable by name.
func (c *Codec) RegisterType(ts ...reflect.Type) {
	c.types.Register(ts...)
}

// RegisterEnum declares t, a named integer type, as an enum written by
// member name. Flag enums combine members with bitwise OR.
func (c *Codec) RegisterEnum(t reflect.Type, flags bool, members ...EnumMember) error {
	return c.types.RegisterEnum(t, flags, members...)
}

// RegisterFunction makes fn callable from documents as namespace.name.
func (c *Codec) RegisterFunction(namespace, name string, fn any) error {
	return c.types.RegisterFunction(namespace, name, fn)
}

// RegisterConstructor makes fn usable in new nodes for its first result type.
func (c *Codec) RegisterConstructor(fn any) error {
	return c.types.RegisterConstructor(fn)
}

// TypeName returns the name t is written under.
func (c *Codec) TypeName(t reflect.Type) string {
	return c.types.NameFor(t)
}

// Marshal encodes expr as a complete document.
func (c *Codec) Marshal(expr ast.Expr) ([]byte, error) {
	return c.marshal(context.Background(), expr)
}

// Unmarshal decodes a complete document.
func (c *Codec) Unmarshal(data []byte) (ast.Expr, error) {
	return c.unmarshal(context.Background(), data)
}

// Encode writes the document of expr to w.
func (c *Codec) Encode(ctx context.Context, w io.Writer, expr ast.Expr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := c.marshal(ctx, expr)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads one document from r. Reading stops at MaxDocumentSize when
// one is configured.
func (c *Codec) Decode(ctx context.Context, r io.Reader) (ast.Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := c.readAll(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.unmarshal(ctx, data)
}

// MarshalValue encodes v as a standalone value document of declared type t.
// A nil t uses the dynamic type of v.
func (c *Codec) MarshalValue(v any, t reflect.Type) ([]byte, error) {
	if t == nil {
		t = reflect.TypeOf(v)
	}
	var out []byte
	err := c.observe(context.Background(), monitoring.OperationEncodeValue, func() (int, error) {
		node, err := c.values.EncodeAs(v, t, "$")
		if err != nil {
			return 0, err
		}
		if out, err = c.write(document.Map("", node)); err != nil {
			return 0, err
		}
		return len(out), nil
	})
	return out, err
}

// UnmarshalValue decodes a standalone value document. The result has the
// declared type recorded in the document.
func (c *Codec) UnmarshalValue(data []byte) (any, error) {
	var out any
	err := c.observe(context.Background(), monitoring.OperationDecodeValue, func() (int, error) {
		root, err := c.parse(data)
		if err != nil {
			return len(data), err
		}
		node, err := root.Single()
		if err != nil {
			return len(data), err
		}
		v, err := c.values.Decode(node)
		if err != nil {
			return len(data), err
		}
		if v.IsValid() {
			out = v.Interface()
		}
		return len(data), nil
	})
	return out, err
}

// UnmarshalValueAs decodes a standalone value document into T.
func UnmarshalValueAs[T any](c *Codec, data []byte) (T, error) {
	var zero T
	v, err := c.UnmarshalValue(data)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %s, got %T", ErrTypeMismatch, reflect.TypeOf((*T)(nil)).Elem(), v)
	}
	return out, nil
}

func (c *Codec) marshal(ctx context.Context, expr ast.Expr) ([]byte, error) {
	var out []byte
	err := c.observe(ctx, monitoring.OperationEncode, func() (int, error) {
		root, err := c.visitor.EncodeDocument(expr)
		if err != nil {
			return 0, err
		}
		if out, err = c.write(root); err != nil {
			return 0, err
		}
		return len(out), nil
	})
	return out, err
}

func (c *Codec) unmarshal(ctx context.Context, data []byte) (ast.Expr, error) {
	var expr ast.Expr
	err := c.observe(ctx, monitoring.OperationDecode, func() (int, error) {
		if err := c.validator.validate(data); err != nil {
			return len(data), err
		}
		root, err := c.parse(data)
		if err != nil {
			return len(data), err
		}
		expr, err = c.visitor.DecodeDocument(root)
		return len(data), err
	})
	return expr, err
}

func (c *Codec) parse(data []byte) (*document.Node, error) {
	return document.Parse(data, document.ParseOptions{AllowTrailingCommas: c.cfg.AllowTrailingCommas})
}

func (c *Codec) write(root *document.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := root.Write(&buf, document.WriteOptions{Indent: c.cfg.Indent}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) readAll(r io.Reader) ([]byte, error) {
	if c.cfg.MaxDocumentSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, c.cfg.MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.cfg.MaxDocumentSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, c.cfg.MaxDocumentSize)
	}
	return data, nil
}

// observe reports one operation to the hooks. fn returns the document size.
func (c *Codec) observe(ctx context.Context, operation string, fn func() (int, error)) error {
	start := time.Now()
	c.hook.OnProcessStart(ctx, operation, nil)
	size, err := fn()
	if err != nil {
		c.hook.OnError(ctx, operation, err, nil)
	} else {
		c.hook.OnDocument(ctx, operation, size, nil)
	}
	c.hook.OnProcessComplete(ctx, operation, time.Since(start), err, map[string]any{"bytes": size})
	return err
}
