package buildenv

import (
	"context"
	"fmt"
	"sort"
)

// An Action is a named unit of work the build system can invoke, such as
// building a kernel module from its sources.
type Action interface {
	Run(ctx context.Context, env *Environment, targets, sources []string) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, env *Environment, targets, sources []string) error

func (f ActionFunc) Run(ctx context.Context, env *Environment, targets, sources []string) error {
	return f(ctx, env, targets, sources)
}

// RegisterAction binds action to name, replacing any action previously
// registered under the same name. It panics if the name is empty or the
// action is nil.
func (e *Environment) RegisterAction(name string, action Action) {
	if name == "" {
		panic("buildenv: action name is empty")
	}

	if action == nil {
		panic(fmt.Sprintf("buildenv: action provided for %q is nil", name))
	}

	e.actions[name] = action
}

// Action returns the action registered under name.
func (e *Environment) Action(name string) (Action, bool) {
	action, ok := e.actions[name]
	return action, ok
}

// Actions returns the names of all registered actions, sorted.
func (e *Environment) Actions() []string {
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run invokes the action registered under name.
func (e *Environment) Run(ctx context.Context, name string, targets, sources []string) error {
	action, ok := e.actions[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownAction, name)
	}

	return action.Run(ctx, e, targets, sources)
}
