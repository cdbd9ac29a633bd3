package render

import (
	"go.uber.org/zap"
)

// Formatter renders one family of output shapes. CanFormat is a cheap
// acceptance probe; Format must always return a rendering, falling back to
// the raw text when a structural decode fails. Formatters never return
// errors to callers.
type Formatter interface {
	Name() string
	CanFormat(text string) bool
	Format(text string, opts Options) string
}

// Chain is the ordered formatter dispatch: the first formatter whose
// CanFormat accepts the text renders it. The priority order is explicit in
// the slice — JSON, then PHP array, then PHP object, then the scalar
// fallback that accepts everything — rather than hidden in registration
// side effects.
type Chain struct {
	formatters []Formatter
	log        *zap.Logger
}

// NewChain builds a chain with the built-in formatters in priority order.
func NewChain(log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{
		formatters: []Formatter{
			jsonFormatter{},
			phpArrayFormatter{},
			phpObjectFormatter{},
			scalarFormatter{},
		},
		log: log,
	}
}

// Register inserts a custom formatter ahead of the built-ins.
func (c *Chain) Register(f Formatter) {
	c.formatters = append([]Formatter{f}, c.formatters...)
}

// Format renders text through the first accepting formatter. The scalar
// fallback guarantees a result for arbitrary input.
func (c *Chain) Format(text string, opts Options) string {
	for _, f := range c.formatters {
		if f.CanFormat(text) {
			c.log.Debug("formatter selected", zap.String("formatter", f.Name()))
			return f.Format(text, opts)
		}
	}
	// Unreachable while the scalar fallback is registered.
	return text
}

// Export returns the best-effort structural value for text: decoded JSON or
// PHP dumps become plain Go values, anything else comes back as the raw
// string with ok=false.
func (c *Chain) Export(text string) (any, bool) {
	switch Classify(text) {
	case TypeObject, TypeList:
		if n, err := decodeJSON(text); err == nil {
			return n.toValue(), true
		}
	case TypePHPArray:
		if n, err := decodePHPArray(text); err == nil {
			return n.toValue(), true
		}
	case TypePHPObject:
		if n, err := decodePHPObject(text); err == nil {
			return n.toValue(), true
		}
	}
	return text, false
}

type jsonFormatter struct{}

func (jsonFormatter) Name() string { return "json" }

func (jsonFormatter) CanFormat(text string) bool {
	t := Classify(text)
	return t == TypeObject || t == TypeList
}

func (jsonFormatter) Format(text string, opts Options) string {
	rd := newRenderer(opts)
	n, err := decodeJSON(text)
	if err != nil {
		return rd.decorate(text)
	}
	return rd.decorate(rd.render(n))
}

type phpArrayFormatter struct{}

func (phpArrayFormatter) Name() string { return "php-array" }

func (phpArrayFormatter) CanFormat(text string) bool {
	return Classify(text) == TypePHPArray
}

func (phpArrayFormatter) Format(text string, opts Options) string {
	rd := newRenderer(opts)
	n, err := decodePHPArray(text)
	if err != nil {
		return rd.decorate(text)
	}
	return rd.decorate(rd.render(n))
}

type phpObjectFormatter struct{}

func (phpObjectFormatter) Name() string { return "php-object" }

func (phpObjectFormatter) CanFormat(text string) bool {
	return Classify(text) == TypePHPObject
}

func (phpObjectFormatter) Format(text string, opts Options) string {
	rd := newRenderer(opts)
	n, err := decodePHPObject(text)
	if err != nil {
		return rd.decorate(text)
	}
	return rd.decorate(rd.render(n))
}

// scalarFormatter renders plain text unchanged apart from the cosmetic
// decoration passes. It accepts everything and terminates the chain.
type scalarFormatter struct{}

func (scalarFormatter) Name() string { return "scalar" }

func (scalarFormatter) CanFormat(string) bool { return true }

func (scalarFormatter) Format(text string, opts Options) string {
	return newRenderer(opts).decorate(text)
}
