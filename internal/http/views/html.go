package views

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/a-h/templ"
)

// safe marks markup that is written without escaping.
type safe string

// printer writes markup, escaping every argument that is not safe.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) f(format string, args ...any) {
	if p.err != nil {
		return
	}
	for i, arg := range args {
		args[i] = escapeArg(arg)
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) s(markup string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, markup)
}

func (p *printer) render(ctx context.Context, c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

func escapeArg(arg any) any {
	switch v := arg.(type) {
	case safe:
		return string(v)
	case string:
		return templ.EscapeString(v)
	case fmt.Stringer:
		return templ.EscapeString(v.String())
	}
	if rv := reflect.ValueOf(arg); rv.IsValid() && rv.Kind() == reflect.String {
		return templ.EscapeString(rv.String())
	}
	return arg
}

func component(fn func(ctx context.Context, p *printer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		fn(ctx, p)
		return p.err
	})
}

func attrIf(cond bool, attr string) safe {
	if cond {
		return safe(" " + attr)
	}
	return ""
}
