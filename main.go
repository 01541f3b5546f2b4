package main

import "github.com/opsre/gvmd/cmd"

func main() {
	cmd.Execute()
}
