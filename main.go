package main

import "github.com/tranvictor/approvalscan/cmd"

func main() {
	cmd.Execute()
}
