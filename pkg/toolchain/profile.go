package toolchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmaxmax/armbecross/pkg/buildenv"
)

// ErrProfileUnavailable is returned by Use when the profile's tools are not
// present in the environment.
var ErrProfileUnavailable = errors.New("toolchain: profile is not available")

// A Profile configures a build environment to use a specific toolchain.
type Profile interface {
	// Apply overwrites the environment's tool variables with the toolchain's
	// tools and registers any actions the toolchain provides. It performs no
	// validation: tools that cannot be resolved fail when the build invokes them.
	Apply(ctx context.Context, env *buildenv.Environment)
	// Exists reports whether the toolchain's primary tool can be resolved
	// on the environment's search path. It has no side effects.
	Exists(env *buildenv.Environment) bool
}

// Tools maps tool variables to the commands a toolchain provides for them.
type Tools map[buildenv.Var]string

// ApplyTo overwrites the environment's variables with the tools.
func (t Tools) ApplyTo(env *buildenv.Environment) {
	env.Replace(t)
}

var (
	profiles      = map[string]Profile{}
	profilesNames []string // provide ordered iteration for the map
	profilesMutex sync.RWMutex
)

// RegisterProfile makes a toolchain profile available by name.
// If a profile with the same name already exists or the provided
// profile is nil, this function panics. If the name has path separators
// or path list separators, this function panics.
func RegisterProfile(name string, profile Profile) {
	profilesMutex.Lock()
	defer profilesMutex.Unlock()

	if !isValidImplementationName(name) {
		panic(fmt.Sprintf("toolchain: profile name %q has invalid characters", name))
	}

	if profiles[name] != nil {
		panic(fmt.Sprintf("toolchain: profile %q is already registered", name))
	}

	if profile == nil {
		panic(fmt.Sprintf("toolchain: profile provided for %q is nil", name))
	}

	profiles[name] = profile
	profilesNames = append(profilesNames, name)
}

// LookupProfile returns the profile registered under the given name.
func LookupProfile(name string) (Profile, error) {
	profilesMutex.RLock()
	profile := profiles[name]
	profilesMutex.RUnlock()

	if profile == nil {
		return nil, fmt.Errorf("toolchain: missing profile %q, forgotten import?", name)
	}

	return profile, nil
}

// Profiles returns the names of all registered profiles, in registration order.
func Profiles() []string {
	profilesMutex.RLock()
	defer profilesMutex.RUnlock()

	return append([]string(nil), profilesNames...)
}

// DetectProfiles returns the names of the registered profiles whose tools
// exist in the given environment.
func DetectProfiles(env *buildenv.Environment) []string {
	profilesMutex.RLock()
	defer profilesMutex.RUnlock()

	var found []string

	for _, name := range profilesNames {
		if profiles[name].Exists(env) {
			found = append(found, name)
		}
	}

	return found
}

// Use applies the named profile to the environment, if its tools exist there.
func Use(ctx context.Context, env *buildenv.Environment, name string) error {
	profile, err := LookupProfile(name)
	if err != nil {
		return err
	}

	if !profile.Exists(env) {
		return fmt.Errorf("%w: %q", ErrProfileUnavailable, name)
	}

	profile.Apply(ctx, env)

	return nil
}
