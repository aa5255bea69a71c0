package render

import (
	"html"
	"time"
)

const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04:05"
)

// Context holds the resolved field values for one render call, keyed by
// namespace and field name. The renderer never mutates it.
type Context map[Namespace]map[string]string

func NewContext() Context {
	return Context{}
}

// Set stores a value and returns the context for chaining.
func (c Context) Set(ns Namespace, field, value string) Context {
	fields, ok := c[ns]
	if !ok {
		fields = map[string]string{}
		c[ns] = fields
	}
	fields[field] = value
	return c
}

// SetAll stores every pair of values under ns.
func (c Context) SetAll(ns Namespace, values map[string]string) Context {
	for k, v := range values {
		c.Set(ns, k, v)
	}
	return c
}

// Lookup returns the value of ns.field, or "" when absent.
func (c Context) Lookup(ns Namespace, field string) string {
	return c[ns][field]
}

type Renderer struct {
	now    func() time.Time
	loc    *time.Location
	escape bool
}

type Option func(*Renderer)

// WithClock overrides the source of data_atual / hora_atual.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLocation sets the zone used to format the system tokens.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithHTMLEscaping escapes every substituted value. Template text itself is
// left untouched.
func WithHTMLEscaping() Option {
	return func(r *Renderer) { r.escape = true }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render substitutes every recognized placeholder in body. Unknown
// placeholders stay as written and missing values become empty strings;
// rendering never fails.
func (r *Renderer) Render(body string, rc Context) string {
	now := r.now().In(r.loc)
	resolved := map[string]string{}

	return placeholder.ReplaceAllStringFunc(body, func(match string) string {
		if v, ok := resolved[match]; ok {
			return v
		}
		tok, ok := ParseToken(match[2 : len(match)-2])
		if !ok {
			return match
		}

		var v string
		switch tok.System {
		case SystemDate:
			v = now.Format(DateLayout)
		case SystemTime:
			v = now.Format(TimeLayout)
		default:
			v = rc.Lookup(tok.Namespace, tok.Field)
			if r.escape {
				v = html.EscapeString(v)
			}
		}
		resolved[match] = v
		return v
	})
}

var defaultRenderer = New()

// Render uses a renderer with the wall clock, local zone and no escaping.
func Render(body string, rc Context) string {
	return defaultRenderer.Render(body, rc)
}
