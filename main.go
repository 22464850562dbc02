package main

import "github.com/idlanyor/kachina-go/cmd"

func main() {
	cmd.Execute()
}
