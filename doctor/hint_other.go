//go:build !linux

package doctor

import "fmt"

func printInjectionHint() {
	fmt.Println("  Grant accessibility/input-monitoring permission to the terminal and retry")
}
