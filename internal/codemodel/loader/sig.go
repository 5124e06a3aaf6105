package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
)

// parseSig parses a type reference: "Name", "Name<A,B>", "!0" (type
// parameter), "!!0" (method parameter), with an optional trailing "&" for
// by-reference types. Names that resolve through lookup become definitions;
// other names stay opaque.
func parseSig(s string, lookup func(string) *codemodel.Type) (*codemodel.TypeSig, error) {
	p := &sigParser{src: strings.TrimSpace(s), lookup: lookup}
	sig, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("type reference %q: %w", s, err)
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type reference %q: unexpected %q at %d", s, p.src[p.pos:], p.pos)
	}
	return sig, nil
}

type sigParser struct {
	src    string
	pos    int
	lookup func(string) *codemodel.Type
}

func (p *sigParser) parse() (*codemodel.TypeSig, error) {
	p.skipSpace()
	var sig *codemodel.TypeSig

	switch {
	case strings.HasPrefix(p.src[p.pos:], "!!"):
		p.pos += 2
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		sig = codemodel.MethodTypeParam(n)
	case strings.HasPrefix(p.src[p.pos:], "!"):
		p.pos++
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		sig = codemodel.TypeParam(n)
	default:
		name := p.name()
		if name == "" {
			return nil, fmt.Errorf("missing type name at %d", p.pos)
		}
		var args []*codemodel.TypeSig
		if p.peek('<') {
			p.pos++
			for {
				arg, err := p.parse()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				p.skipSpace()
				if p.peek(',') {
					p.pos++
					continue
				}
				if p.peek('>') {
					p.pos++
					break
				}
				return nil, fmt.Errorf("expected ',' or '>' at %d", p.pos)
			}
		}
		if t := p.lookup(name); t != nil {
			sig = codemodel.TypeOf(t, args...)
		} else if len(args) > 0 {
			return nil, fmt.Errorf("unknown generic type %q", name)
		} else {
			sig = codemodel.Named(name)
		}
	}

	p.skipSpace()
	if p.peek('&') {
		p.pos++
		sig = sig.Ref()
	}
	return sig, nil
}

func (p *sigParser) name() string {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>,& ", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *sigParser) number() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	return strconv.Atoi(p.src[start:p.pos])
}

func (p *sigParser) peek(c byte) bool {
	return p.pos < len(p.src) && p.src[p.pos] == c
}

func (p *sigParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}
