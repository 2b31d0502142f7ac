package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/tmachale/scenforge/internal/editor/varedit"
	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// Violation describes one rejected value.
type Violation struct {
	Category variable.Category
	ID       string
	Target   *variable.Target
	Value    int
	Message  string
}

func (v Violation) String() string {
	if v.Target != nil {
		return fmt.Sprintf("%s/%s/%s = %d: %s", v.Category, v.ID, *v.Target, v.Value, v.Message)
	}
	return fmt.Sprintf("%s/%s = %d: %s", v.Category, v.ID, v.Value, v.Message)
}

// ValidationError aggregates all violations found in one pre-commit pass.
// It is recoverable: the edit session stays untouched so the user can
// correct input without losing edits.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// rule is one loaded Lua check function, named after its source file.
type rule struct {
	name string
	fn   *lua.LFunction
}

// Validator runs the external pre-commit validation step: the built-in
// range check against the variable system bounds, then every loaded Lua
// rule. It owns one sandboxed LState and is not safe for concurrent use.
type Validator struct {
	state  *lua.LState
	rules  []rule
	limit  int
	logger *zap.Logger
}

// NewValidator creates a Validator with only the built-in range check.
//
// Precondition: logger must be non-nil.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		state:  newSandboxedState(),
		limit:  DefaultInstructionLimit,
		logger: logger,
	}
}

// Close releases the Lua state. The Validator must not be used afterwards.
func (v *Validator) Close() {
	v.state.Close()
}

// LoadRules executes every *.lua file in dir in lexicographic order.
// Each file must define a global function
//
//	check(category, id, target, value) -> ok, message
//
// where target is nil for basic values. The function is captured and the
// global cleared before the next file loads.
//
// Precondition: dir must be a readable directory.
func (v *Validator) LoadRules(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading rules dir %q: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := v.state.DoFile(path); err != nil {
			return fmt.Errorf("loading rule %q: %w", path, err)
		}
		fn, ok := v.state.GetGlobal("check").(*lua.LFunction)
		if !ok {
			return fmt.Errorf("rule %q does not define a check function", path)
		}
		v.state.SetGlobal("check", lua.LNil)
		v.rules = append(v.rules, rule{name: name, fn: fn})
		v.logger.Debug("loaded validation rule", zap.String("rule", name))
	}
	return nil
}

// Check validates one value and returns all violations it produces.
// A nil or empty result means the value is acceptable.
func (v *Validator) Check(cat variable.Category, id string, target *variable.Target, value int) []Violation {
	var out []Violation
	if !variable.InBounds(value) {
		out = append(out, Violation{
			Category: cat, ID: id, Target: target, Value: value,
			Message: fmt.Sprintf("value out of range [%d, %d]", variable.AbsoluteMinimum, variable.AbsoluteMaximum),
		})
	}

	var targetArg lua.LValue = lua.LNil
	if target != nil {
		targetArg = lua.LString(target.String())
	}
	for _, r := range v.rules {
		// Fresh instruction budget per rule invocation.
		v.state.SetContext(newCountingContext(v.limit))
		err := v.state.CallByParam(lua.P{Fn: r.fn, NRet: 2, Protect: true},
			lua.LString(cat.String()), lua.LString(id), targetArg, lua.LNumber(value))
		if err != nil {
			v.logger.Warn("validation rule errored",
				zap.String("rule", r.name), zap.Error(err))
			out = append(out, Violation{
				Category: cat, ID: id, Target: target, Value: value,
				Message: fmt.Sprintf("rule %s failed: %v", r.name, err),
			})
			continue
		}
		msg := v.state.Get(-1)
		ok := v.state.Get(-2)
		v.state.Pop(2)
		if lua.LVAsBool(ok) {
			continue
		}
		message := lua.LVAsString(msg)
		if message == "" {
			message = fmt.Sprintf("rejected by rule %s", r.name)
		}
		out = append(out, Violation{
			Category: cat, ID: id, Target: target, Value: value, Message: message,
		})
	}
	return out
}

// CheckSet validates every entry of every category in the edit set.
// Returns nil when everything passes, or a *ValidationError aggregating
// all violations. The set itself is never mutated.
func (v *Validator) CheckSet(set *varedit.Set) error {
	var violations []Violation
	for _, cat := range set.Categories() {
		entries, err := set.CategoryEntries(cat)
		if err != nil {
			return fmt.Errorf("listing %s entries: %w", cat, err)
		}
		for _, e := range entries {
			violations = append(violations, v.Check(cat, e.ID, e.Target, e.Current)...)
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
