package main

import "github.com/kebairia/stackctl/cmd"

func main() {
	cmd.Execute()
}
