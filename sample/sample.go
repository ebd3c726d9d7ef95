// Package sample is the native reference implementation of the demo
// extension: the same functions the scaffolded guest project exports,
// callable directly from Go and exposed to guests through the "sample"
// host bundle.
package sample

import "os"

// GreetingText is the fixed string returned by Greeting.
const GreetingText = "✨ Hello, world!"

// Greeting takes no input and returns a fixed human-readable string.
// It has no side effects and no failure modes.
func Greeting() string {
	return GreetingText
}

// Tac reads the file at path and returns its contents with character
// order reversed. The whole file is buffered; reversal operates on runes
// so multi-byte characters survive. Errors are the underlying I/O errors,
// unwrapped.
func Tac(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Reverse(string(data)), nil
}

// Reverse returns s with rune order reversed.
func Reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
