package main

import (
	"fmt"
	"os"
)

func main() {
	e := &env{}
	root := newRootCmd(e)
	err := root.Execute()
	if e.app != nil {
		_ = e.app.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
