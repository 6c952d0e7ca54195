package main

import "github.com/ironjr/himawaripy/cmd"

func main() {
	cmd.Execute()
}
