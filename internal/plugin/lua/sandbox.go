package lua

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	output io.Writer

	// Call limiting
	callLimit int64
	callCount int64

	mu           sync.RWMutex
	capabilities map[Capability]bool
	modules      map[string]lua.LGFunction
	loaded       map[string]lua.LValue
}

// Capability represents a permission that can be granted to scripts.
type Capability string

// Available capabilities.
const (
	// CapabilityNetwork lets @getUrl() perform requests.
	CapabilityNetwork Capability = "network"
	// CapabilityBufferWrite lets a script modify the document.
	CapabilityBufferWrite Capability = "buffer.write"
)

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState, callLimit int64, output io.Writer) *Sandbox {
	if output == nil {
		output = io.Discard
	}
	return &Sandbox{
		L:            L,
		output:       output,
		callLimit:    callLimit,
		capabilities: make(map[Capability]bool),
		modules:      make(map[string]lua.LGFunction),
		loaded:       make(map[string]lua.LValue),
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	// Remove functions that load code from outside the script.
	dangerousFuncs := []string{
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"module",
	}
	for _, name := range dangerousFuncs {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installSafePrint()
	s.installSafeRequire()
}

// installSafePrint sends print output to the sandbox writer.
func (s *Sandbox) installSafePrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, top)
		for i := 1; i <= top; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(s.output, strings.Join(parts, "\t"))
		return 0
	}))
}

// installSafeRequire replaces require with a resolver for the whitelisted
// built-ins and the modules registered with Preload. The package library is
// never opened, so no loader can read from the file system.
func (s *Sandbox) installSafeRequire() {
	safeModules := map[string]bool{
		"string": true,
		"table":  true,
		"math":   true,
	}

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if safeModules[modName] {
			L.Push(L.GetGlobal(modName))
			return 1
		}
		if mod, ok := s.loadedModule(modName); ok {
			L.Push(mod)
			return 1
		}
		loader, ok := s.preloaded(modName)
		if !ok {
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(L.NewFunction(loader))
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		mod := L.Get(-1)
		L.Pop(1)
		if mod == lua.LNil {
			mod = lua.LTrue
		}
		s.mu.Lock()
		s.loaded[modName] = mod
		s.mu.Unlock()

		L.Push(mod)
		return 1
	}))
}

// Preload registers a loader for require(name). Only ks and ks.* names
// are accepted.
func (s *Sandbox) Preload(name string, loader lua.LGFunction) error {
	if name != "ks" && !strings.HasPrefix(name, "ks.") {
		return fmt.Errorf("module %q: only ks.* modules can be preloaded", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[name] = loader
	delete(s.loaded, name)
	return nil
}

func (s *Sandbox) preloaded(name string) (lua.LGFunction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loader, ok := s.modules[name]
	return loader, ok
}

func (s *Sandbox) loadedModule(name string) (lua.LValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mod, ok := s.loaded[name]
	return mod, ok
}

// ResetCallCount resets the API call counter.
func (s *Sandbox) ResetCallCount() {
	atomic.StoreInt64(&s.callCount, 0)
}

// CallCount returns the number of API calls since the last reset.
func (s *Sandbox) CallCount() int64 {
	return atomic.LoadInt64(&s.callCount)
}

// CountCall records one API call and returns ErrCallLimit once the limit
// is exceeded.
func (s *Sandbox) CountCall() error {
	count := atomic.AddInt64(&s.callCount, 1)
	if s.callLimit > 0 && count > s.callLimit {
		return fmt.Errorf("%w (%d)", ErrCallLimit, s.callLimit)
	}
	return nil
}

// Grant enables a capability.
func (s *Sandbox) Grant(cap Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilities[cap] = true
}

// Revoke disables a capability.
func (s *Sandbox) Revoke(cap Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.capabilities, cap)
}

// HasCapability returns true if the capability is granted.
func (s *Sandbox) HasCapability(cap Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capabilities[cap]
}

// CheckCapability returns an error if the capability is not granted.
func (s *Sandbox) CheckCapability(cap Capability) error {
	if !s.HasCapability(cap) {
		return &CapabilityError{Capability: cap}
	}
	return nil
}
