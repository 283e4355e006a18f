package main

import "github.com/ukedu/termtrack/cmd"

func main() {
	cmd.Execute()
}
