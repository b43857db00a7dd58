// Command ectool talks to a ChromeOS embedded controller.
//
// Usage:
//
//	ectool detect
//	ectool hello
//	ectool version -o json
//	ectool memmap 0x20 2
//	ectool command 0x0001 2a000000 --insize 4
//	ectool sensors --device lpc --address 0xE00
package main

import "github.com/moffa90/go-crosec/cmd/ectool/cli"

func main() {
	cli.Execute()
}
