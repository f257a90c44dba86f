package main

import "fmt"

/* exprParser implements the expression grammar:
     expr = term (('+'|'-') term)*
     term = factor (('*'|'/') factor)*
     factor = number | char | '$' | identifier | '(' expr ')' | unary ('+'|'-') factor
   It folds constant arithmetic while propagating at most one symbolic term. */
type exprParser struct {
	lx  *lexer
	asm *assembler
}

func newExprParser(lx *lexer, asm *assembler) *exprParser {
	return &exprParser{lx: lx, asm: asm}
}

func (ep *exprParser) parse() (exprVal, error) {
	return ep.parseAdditive()
}

func (ep *exprParser) parseAdditive() (exprVal, error) {
	left, err := ep.parseMultiplicative()
	if err != nil {
		return exprVal{}, err
	}
	for {
		tk := ep.lx.peek()
		if tk.typ != tokPlus && tk.typ != tokMinus {
			return left, nil
		}
		ep.lx.next()
		right, err := ep.parseMultiplicative()
		if err != nil {
			return exprVal{}, err
		}
		if tk.typ == tokPlus {
			left = addVals(left, right)
		} else {
			left = subVals(left, right)
		}
	}
}

func (ep *exprParser) parseMultiplicative() (exprVal, error) {
	left, err := ep.parseUnary()
	if err != nil {
		return exprVal{}, err
	}
	for {
		tk := ep.lx.peek()
		if tk.typ != tokStar && tk.typ != tokSlash {
			return left, nil
		}
		if left.sym != nil {
			return exprVal{}, fmt.Errorf("relocatable symbol cannot be multiplied or divided")
		}
		ep.lx.next()
		right, err := ep.parseUnary()
		if err != nil {
			return exprVal{}, err
		}
		if right.sym != nil {
			return exprVal{}, fmt.Errorf("relocatable symbol cannot be multiplied or divided")
		}
		if tk.typ == tokStar {
			left.n = left.n * right.n
		} else {
			if right.n == 0 {
				return exprVal{}, fmt.Errorf("division by zero")
			}
			left.n = left.n / right.n
		}
	}
}

func (ep *exprParser) parseUnary() (exprVal, error) {
	tk := ep.lx.peek()
	if tk.typ == tokMinus {
		ep.lx.next()
		v, err := ep.parseUnary()
		if err != nil {
			return exprVal{}, err
		}
		v.n = -v.n
		if v.sym != nil {
			s := *v.sym
			s.negate = !s.negate
			v.sym = &s
		}
		return v, nil
	}
	if tk.typ == tokPlus {
		ep.lx.next()
		return ep.parseUnary()
	}
	return ep.parseFactor()
}

func (ep *exprParser) parseFactor() (exprVal, error) {
	tk := ep.lx.next()
	switch tk.typ {
	case tokNumber, tokChar:
		return exprVal{n: tk.value}, nil

	case tokDollar:
		return exprVal{n: int32(ep.asm.currentPC())}, nil

	case tokLParen:
		v, err := ep.parse()
		if err != nil {
			return exprVal{}, err
		}
		if ep.lx.peek().typ != tokRParen {
			return exprVal{}, fmt.Errorf("expected ')' in expression")
		}
		ep.lx.next()
		return v, nil

	case tokIdent:
		return ep.lookupIdent(tk.text)

	default:
		return exprVal{}, fmt.Errorf("unexpected token in expression: %q", tk.text)
	}
}

func (ep *exprParser) lookupIdent(name string) (exprVal, error) {
	if isLocalLabel(name) {
		name = ep.asm.mangleLocal(name)
	}
	sym := ep.asm.findSymbol(name)
	if sym == nil {
		if ep.asm.pass == 1 {
			return exprVal{n: 0, sym: &symRef{name: name, section: sectAbs}}, nil
		}
		return exprVal{}, fmt.Errorf("undefined symbol: %s", name)
	}
	if sym.flags == symExtern {
		return exprVal{n: 0, sym: &symRef{name: sym.name, extern: true}}, nil
	}
	v := exprVal{n: int32(sym.value)}
	if sym.section != sectAbs {
		v.sym = &symRef{name: sym.name, section: sym.section}
	}
	return v, nil
}

/* addVals sums two values. When both sides carry symbols the left one
   wins; otherwise whichever side has a symbol keeps it, which is what
   makes `sym + n` work. */
func addVals(a, b exprVal) exprVal {
	out := exprVal{n: a.n + b.n}
	switch {
	case a.sym != nil:
		out.sym = a.sym
	case b.sym != nil:
		out.sym = b.sym
	}
	return out
}

/* subVals implements the three subtraction rules:
     - two symbols in the same non-ABS section cancel to an absolute value
     - a bare right-hand symbol is retained, negated
     - a bare left-hand symbol is retained as-is (n - sym not directly
       expressible in this grammar's operators beyond simple offsets, but
       the case is handled symmetrically for robustness) */
func subVals(a, b exprVal) exprVal {
	if a.sym != nil && b.sym != nil {
		if a.sym.section == b.sym.section && !a.sym.extern && !b.sym.extern {
			return exprVal{n: a.n - b.n}
		}
		return exprVal{n: a.n - b.n, sym: a.sym}
	}
	if b.sym != nil {
		s := *b.sym
		s.negate = !s.negate
		return exprVal{n: a.n - b.n, sym: &s}
	}
	return exprVal{n: a.n - b.n, sym: a.sym}
}
