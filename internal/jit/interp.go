package jit

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Interp executes IR modules directly. It supports exactly the instruction
// set the emitter produces: entry allocas, loads and stores, integer and
// float arithmetic, compares, casts, calls, phi and branches.
type Interp struct {
	funcs   map[string]*ir.Func
	globals map[*ir.Global]*cell
	externs map[string]Extern
}

func NewInterp() *Interp {
	return &Interp{
		funcs:   map[string]*ir.Func{},
		globals: map[*ir.Global]*cell{},
		externs: map[string]Extern{},
	}
}

// rkind tags the payload of a runtime value.
type rkind int

const (
	rInt rkind = iota
	rFloat
	rPtr
)

// rval is a runtime value. Integers are stored sign-extended in i; bytes
// addressed through a buffer pointer travel as i8.
type rval struct {
	k rkind
	i int64
	f float64
	p pointer
}

// pointer refers either to a scalar cell (alloca or global) or into a byte
// buffer (string global).
type pointer struct {
	cell *cell
	buf  []byte
	off  int
}

type cell struct {
	v rval
}

func (vm *Interp) AddModule(m *ir.Module) error {
	for _, g := range m.Globals {
		c := &cell{}
		if arr, ok := g.Init.(*constant.CharArray); ok {
			buf := make([]byte, len(arr.X))
			copy(buf, arr.X)
			c.v = rval{k: rPtr, p: pointer{buf: buf}}
		} else if g.Init != nil {
			v, err := vm.evalConst(g.Init)
			if err != nil {
				return err
			}
			c.v = v
		}
		vm.globals[g] = c
	}
	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue // declaration; resolved by name at call time
		}
		vm.funcs[fn.Name()] = fn
	}
	return nil
}

func (vm *Interp) RegisterExtern(name string, fn Extern) {
	vm.externs[name] = fn
}

func (vm *Interp) Close() error {
	return nil
}

type callable struct {
	vm *Interp
	fn *ir.Func
}

func (c *callable) Call(args ...float64) (float64, error) {
	rargs := make([]rval, 0, len(args))
	for i, arg := range args {
		var t types.Type = types.Double
		if i < len(c.fn.Params) {
			t = c.fn.Params[i].Type()
		}
		if _, ok := t.(*types.FloatType); ok {
			rargs = append(rargs, rval{k: rFloat, f: arg})
		} else {
			rargs = append(rargs, rval{k: rInt, i: int64(arg)})
		}
	}
	res, err := c.vm.call(c.fn, rargs)
	if err != nil {
		return 0, err
	}
	switch res.k {
	case rFloat:
		return res.f, nil
	case rInt:
		return float64(res.i), nil
	}
	return 0, nil
}

func (vm *Interp) Lookup(name string) (Callable, bool) {
	if fn, ok := vm.funcs[name]; ok {
		return &callable{vm: vm, fn: fn}, true
	}
	return nil, false
}

// call dispatches to a defined function body, a defined function of the
// same name from an earlier module, or a registered extern.
func (vm *Interp) call(fn *ir.Func, args []rval) (rval, error) {
	if len(fn.Blocks) == 0 {
		if def, ok := vm.funcs[fn.Name()]; ok && len(def.Blocks) > 0 {
			fn = def
		} else if ext, ok := vm.externs[fn.Name()]; ok {
			fargs := make([]float64, len(args))
			for i, arg := range args {
				if arg.k == rFloat {
					fargs[i] = arg.f
				} else {
					fargs[i] = float64(arg.i)
				}
			}
			res := ext(fargs)
			if _, ok := fn.Sig.RetType.(*types.FloatType); ok {
				return rval{k: rFloat, f: res}, nil
			}
			return rval{k: rInt, i: int64(res)}, nil
		} else {
			return rval{}, fmt.Errorf("undefined reference: '%s'", fn.Name())
		}
	}
	return vm.exec(fn, args)
}

// exec runs a function body block by block.
func (vm *Interp) exec(fn *ir.Func, args []rval) (rval, error) {
	frame := map[value.Value]rval{}
	for i, param := range fn.Params {
		if i < len(args) {
			frame[param] = args[i]
		}
	}

	block := fn.Blocks[0]
	var prev *ir.Block
	for steps := 0; ; steps++ {
		if steps > 100_000_000 {
			return rval{}, fmt.Errorf("execution step limit exceeded in '%s'", fn.Name())
		}

		// Phi nodes read their incomings simultaneously on block entry.
		var phiVals []struct {
			inst *ir.InstPhi
			v    rval
		}
		for _, inst := range block.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				break
			}
			var picked value.Value
			for _, inc := range phi.Incs {
				if inc.Pred == prev {
					picked = inc.X
					break
				}
			}
			if picked == nil {
				return rval{}, fmt.Errorf("phi in '%s' has no incoming for predecessor", fn.Name())
			}
			v, err := vm.eval(picked, frame)
			if err != nil {
				return rval{}, err
			}
			phiVals = append(phiVals, struct {
				inst *ir.InstPhi
				v    rval
			}{phi, v})
		}
		for _, pv := range phiVals {
			frame[pv.inst] = pv.v
		}

		for _, inst := range block.Insts {
			if _, ok := inst.(*ir.InstPhi); ok {
				continue
			}
			if err := vm.execInst(inst, frame); err != nil {
				return rval{}, err
			}
		}

		switch term := block.Term.(type) {
		case *ir.TermRet:
			if term.X == nil {
				return rval{}, nil
			}
			return vm.eval(term.X, frame)
		case *ir.TermBr:
			prev, block = block, term.Target.(*ir.Block)
		case *ir.TermCondBr:
			cond, err := vm.eval(term.Cond, frame)
			if err != nil {
				return rval{}, err
			}
			if cond.i != 0 {
				prev, block = block, term.TargetTrue.(*ir.Block)
			} else {
				prev, block = block, term.TargetFalse.(*ir.Block)
			}
		case *ir.TermUnreachable:
			return rval{}, fmt.Errorf("unreachable executed in '%s'", fn.Name())
		default:
			return rval{}, fmt.Errorf("unsupported terminator in '%s'", fn.Name())
		}
	}
}

func (vm *Interp) execInst(inst ir.Instruction, frame map[value.Value]rval) error {
	switch in := inst.(type) {
	case *ir.InstAlloca:
		frame[in] = rval{k: rPtr, p: pointer{cell: &cell{}}}
		return nil
	case *ir.InstLoad:
		ptr, err := vm.eval(in.Src, frame)
		if err != nil {
			return err
		}
		frame[in] = loadFrom(ptr.p)
		return nil
	case *ir.InstStore:
		ptr, err := vm.eval(in.Dst, frame)
		if err != nil {
			return err
		}
		v, err := vm.eval(in.Src, frame)
		if err != nil {
			return err
		}
		storeTo(ptr.p, v)
		return nil
	case *ir.InstGetElementPtr:
		return vm.execGEP(in, frame)
	case *ir.InstCall:
		callee, ok := in.Callee.(*ir.Func)
		if !ok {
			return fmt.Errorf("indirect calls are not supported")
		}
		args := make([]rval, 0, len(in.Args))
		for _, arg := range in.Args {
			v, err := vm.eval(arg, frame)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		res, err := vm.call(callee, args)
		if err != nil {
			return err
		}
		frame[in] = res
		return nil
	}
	return vm.execArith(inst, frame)
}

func (vm *Interp) execGEP(in *ir.InstGetElementPtr, frame map[value.Value]rval) error {
	base, err := vm.eval(in.Src, frame)
	if err != nil {
		return err
	}
	off := 0
	for _, idx := range in.Indices[1:] {
		v, err := vm.eval(idx, frame)
		if err != nil {
			return err
		}
		off += int(v.i)
	}
	if base.p.buf == nil {
		return fmt.Errorf("getelementptr on a non-array pointer")
	}
	frame[in] = rval{k: rPtr, p: pointer{buf: base.p.buf, off: base.p.off + off}}
	return nil
}

func loadFrom(p pointer) rval {
	if p.buf != nil {
		return rval{k: rInt, i: int64(int8(p.buf[p.off]))}
	}
	return p.cell.v
}

func storeTo(p pointer, v rval) {
	if p.buf != nil {
		p.buf[p.off] = byte(v.i)
		return
	}
	p.cell.v = v
}

func (vm *Interp) eval(v value.Value, frame map[value.Value]rval) (rval, error) {
	switch c := v.(type) {
	case *ir.Global:
		g, ok := vm.globals[c]
		if !ok {
			return rval{}, fmt.Errorf("unknown global: %s", c.Name())
		}
		if g.v.k == rPtr {
			// Byte-array global: the global itself is the array address.
			return g.v, nil
		}
		return rval{k: rPtr, p: pointer{cell: g}}, nil
	case constant.Constant:
		return vm.evalConst(c)
	}
	if rv, ok := frame[v]; ok {
		return rv, nil
	}
	return rval{}, fmt.Errorf("use of an undefined value: %s", v.Ident())
}

func (vm *Interp) evalConst(c constant.Constant) (rval, error) {
	switch cv := c.(type) {
	case *constant.Int:
		return rval{k: rInt, i: cv.X.Int64()}, nil
	case *constant.Float:
		f, _ := cv.X.Float64()
		return rval{k: rFloat, f: f}, nil
	case *constant.Null:
		return rval{k: rPtr}, nil
	}
	return rval{}, fmt.Errorf("unsupported constant: %s", c.Ident())
}

func bitSize(t types.Type) uint {
	if it, ok := t.(*types.IntType); ok {
		return uint(it.BitSize)
	}
	return 64
}

// wrap sign-extends the low width bits into the canonical representation.
func wrap(v int64, width uint) int64 {
	if width >= 64 {
		return v
	}
	shift := 64 - width
	return v << shift >> shift
}

// toUnsigned masks the canonical value to its width.
func toUnsigned(v int64, width uint) uint64 {
	if width >= 64 {
		return uint64(v)
	}
	return uint64(v) & (1<<width - 1)
}

func (vm *Interp) execArith(inst ir.Instruction, frame map[value.Value]rval) error {
	bin := func(x, y value.Value) (rval, rval, error) {
		a, err := vm.eval(x, frame)
		if err != nil {
			return rval{}, rval{}, err
		}
		b, err := vm.eval(y, frame)
		if err != nil {
			return rval{}, rval{}, err
		}
		return a, b, nil
	}

	switch in := inst.(type) {
	case *ir.InstAdd:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: wrap(a.i+b.i, bitSize(in.Type()))}
	case *ir.InstSub:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: wrap(a.i-b.i, bitSize(in.Type()))}
	case *ir.InstMul:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: wrap(a.i*b.i, bitSize(in.Type()))}
	case *ir.InstSDiv:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		if b.i == 0 {
			return fmt.Errorf("integer division by zero")
		}
		frame[in] = rval{k: rInt, i: wrap(a.i/b.i, bitSize(in.Type()))}
	case *ir.InstUDiv:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		w := bitSize(in.Type())
		ub := toUnsigned(b.i, w)
		if ub == 0 {
			return fmt.Errorf("integer division by zero")
		}
		frame[in] = rval{k: rInt, i: wrap(int64(toUnsigned(a.i, w)/ub), w)}
	case *ir.InstAnd:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: a.i & b.i}
	case *ir.InstOr:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: a.i | b.i}
	case *ir.InstXor:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: wrap(a.i^b.i, bitSize(in.Type()))}
	case *ir.InstFAdd:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rFloat, f: a.f + b.f}
	case *ir.InstFSub:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rFloat, f: a.f - b.f}
	case *ir.InstFMul:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rFloat, f: a.f * b.f}
	case *ir.InstFDiv:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rFloat, f: a.f / b.f}
	case *ir.InstICmp:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: icmp(in.Pred, a.i, b.i, bitSize(in.X.Type()))}
	case *ir.InstFCmp:
		a, b, err := bin(in.X, in.Y)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: fcmp(in.Pred, a.f, b.f)}
	case *ir.InstSExt:
		a, err := vm.eval(in.From, frame)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: a.i}
	case *ir.InstZExt:
		a, err := vm.eval(in.From, frame)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: int64(toUnsigned(a.i, bitSize(in.From.Type())))}
	case *ir.InstTrunc:
		a, err := vm.eval(in.From, frame)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: wrap(a.i, bitSize(in.To))}
	case *ir.InstFPToSI:
		a, err := vm.eval(in.From, frame)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rInt, i: wrap(int64(a.f), bitSize(in.To))}
	case *ir.InstSIToFP:
		a, err := vm.eval(in.From, frame)
		if err != nil {
			return err
		}
		frame[in] = rval{k: rFloat, f: float64(a.i)}
	default:
		return fmt.Errorf("unsupported instruction: %s", inst.LLString())
	}
	return nil
}

func icmp(pred enum.IPred, a, b int64, width uint) int64 {
	ua, ub := toUnsigned(a, width), toUnsigned(b, width)
	var r bool
	switch pred {
	case enum.IPredEQ:
		r = a == b
	case enum.IPredNE:
		r = a != b
	case enum.IPredSLT:
		r = a < b
	case enum.IPredSLE:
		r = a <= b
	case enum.IPredSGT:
		r = a > b
	case enum.IPredSGE:
		r = a >= b
	case enum.IPredULT:
		r = ua < ub
	case enum.IPredULE:
		r = ua <= ub
	case enum.IPredUGT:
		r = ua > ub
	case enum.IPredUGE:
		r = ua >= ub
	}
	if r {
		return 1
	}
	return 0
}

func fcmp(pred enum.FPred, a, b float64) int64 {
	var r bool
	switch pred {
	case enum.FPredOEQ:
		r = a == b
	case enum.FPredONE:
		r = a != b
	case enum.FPredOLT:
		r = a < b
	case enum.FPredOLE:
		r = a <= b
	case enum.FPredOGT:
		r = a > b
	case enum.FPredOGE:
		r = a >= b
	}
	if r {
		return 1
	}
	return 0
}
