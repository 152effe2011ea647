package ui

import (
	"fmt"
	"sync"

	babel "github.com/jvatic/goja-babel"
)

var babelOnce sync.Once

func ensureBabel() {
	babelOnce.Do(func() {
		babel.Init(2) // worker pool size; shared by component compilation and the sandbox's TypeScript path
	})
}

// Transpile compiles source through goja-babel with the given presets,
// which strip type annotations and compile JSX; other modern syntax is
// emitted unchanged. Shared by component-file compilation (§4.11,
// presets react+typescript) and the code execution sandbox's TypeScript
// mode (§4.12, preset typescript only).
func Transpile(source string, presets []string) (string, error) {
	ensureBabel()
	result, err := babel.TransformString(source, map[string]interface{}{
		"presets":  presets,
		"filename": "source.tsx",
	})
	if err != nil {
		return "", fmt.Errorf("transpile source: %w", err)
	}
	return result.Code, nil
}

// transpileComponent compiles TSX/JSX source to JavaScript runnable in a
// browser.
func transpileComponent(source string) (string, error) {
	return Transpile(source, []string{"react", "typescript"})
}
