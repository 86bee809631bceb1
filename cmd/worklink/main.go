package main

import "github.com/emrgen/worklink/cmd"

func main() {
	cmd.Execute()
}
