package main

import "github.com/liamg/portfinder/cmd"

func main() {
	cmd.Execute()
}
