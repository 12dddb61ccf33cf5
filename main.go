package main

import "github.com/edalab/edachat/cmd"

func main() {
	cmd.Execute()
}
