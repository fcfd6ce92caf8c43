// Package scripting provides a sandboxed GopherLua environment for the
// scriptable item scoring oracle. Scripts see plain Lua tables only; every
// value they need is injected by the caller.
package scripting

import (
	"context"
	"errors"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one sandboxed invocation
// when no limit is configured.
const DefaultInstructionLimit = 100_000

// ErrBudgetExceeded reports that an invocation ran out of opcodes.
var ErrBudgetExceeded = errors.New("scripting: instruction budget exceeded")

// opBudget is a context whose Done channel closes once it has been polled
// more than limit times. The GopherLua main loop polls Done once per opcode
// when a context is attached, so the poll count is the opcode count.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func (b *opBudget) exhausted() bool { return b.left.Load() < 0 }

// Sandbox is a Lua VM restricted to the base, table, string and math
// libraries, with file loading, require and the garbage collector control
// removed. Every Run gets a fresh opcode budget.
//
// A Sandbox is not safe for concurrent use.
type Sandbox struct {
	vm    *lua.LState
	limit int64
}

// NewSandbox returns a Sandbox whose invocations may execute at most limit
// opcodes each.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller must Close the returned Sandbox.
func NewSandbox(limit int) *Sandbox {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &Sandbox{vm: L, limit: int64(limit)}
}

// State exposes the VM for installing globals and inspecting results.
func (s *Sandbox) State() *lua.LState { return s.vm }

// Run calls fn with the VM under a fresh opcode budget.
//
// Postcondition: returns an error wrapping ErrBudgetExceeded when the budget
// ran out, otherwise fn's error.
func (s *Sandbox) Run(fn func(L *lua.LState) error) error {
	base, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: base, cancel: cancel}
	b.left.Store(s.limit)
	s.vm.SetContext(b)
	defer func() {
		cancel()
		s.vm.RemoveContext()
	}()
	err := fn(s.vm)
	if err != nil && b.exhausted() {
		return errors.Join(ErrBudgetExceeded, err)
	}
	return err
}

// DoString runs src under a fresh budget.
func (s *Sandbox) DoString(src string) error {
	return s.Run(func(L *lua.LState) error { return L.DoString(src) })
}

// DoFile runs the script at path under a fresh budget.
func (s *Sandbox) DoFile(path string) error {
	return s.Run(func(L *lua.LState) error { return L.DoFile(path) })
}

// Close releases the VM.
func (s *Sandbox) Close() { s.vm.Close() }
