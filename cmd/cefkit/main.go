// SPDX-License-Identifier: MPL-2.0

// Command cefkit provisions CEF binary distributions into a project tree and
// prints the linker flags for building against them.
package main

func main() {
	Execute()
}
