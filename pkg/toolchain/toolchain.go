package toolchain

import (
	"os"
	"strings"
)

func isValidImplementationName(name string) bool {
	return name != "" && !strings.ContainsAny(name, string([]rune{os.PathSeparator, os.PathListSeparator}))
}
