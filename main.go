package main

import "github.com/cartscout/cartscout/cmd"

func main() {
	cmd.Execute()
}
