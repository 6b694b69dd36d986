//go:build linux

package doctor

import "fmt"

func printInjectionHint() {
	fmt.Println("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
}
