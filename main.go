package main

import (
	"os"

	"github.com/codeman001/cppcheck-vs-addin/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
