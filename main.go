package main

import "github.com/dgannon/appdriver/cmd"

func main() {
	cmd.Execute()
}
