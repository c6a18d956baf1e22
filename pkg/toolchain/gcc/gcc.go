/*
Package gcc provides a compiler implementation for GCC and GCC-compatible
cross compilers. The compiler executable is taken from a build environment,
so it is whatever the environment's toolchain profile configured.
*/
package gcc

import "os/exec"

var execCommandContext = exec.CommandContext
