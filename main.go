package main

import "github.com/dexwatch/dexwatch/cmd"

func main() {
	cmd.Execute()
}
