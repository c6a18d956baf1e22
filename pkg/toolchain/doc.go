/*
Package toolchain provides a set of utilities to configure build
environments for a given toolchain and to use the compilers they name.

Toolchain profiles register themselves by name, usually from an init
function, the same way database/sql drivers do. Import the profile's
package for its side effects, then apply it with Use:

	import _ "github.com/tmaxmax/armbecross/pkg/toolchain/armbe"

	env := buildenv.FromOS()
	if err := toolchain.Use(ctx, env, "armbecross"); err != nil {
		// the cross toolchain is not installed
	}
*/
package toolchain
