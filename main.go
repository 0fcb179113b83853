package main

import "github.com/resetctl/resetctl/cmd"

func main() {
	cmd.Execute()
}
