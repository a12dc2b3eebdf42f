// Package main is the entry point for the obfuscator CLI.
package main

import "github.com/samir-djili/obfuscator/cmd"

func main() {
	cmd.Execute()
}
