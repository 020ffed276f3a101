package main

import "github.com/deskdriver/deskdriver/cmd"

func main() {
	cmd.Execute()
}
