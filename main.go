package main

import "github.com/shopstate/cartflow/cmd"

func main() {
	cmd.Execute()
}
