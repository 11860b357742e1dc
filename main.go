package main

import "github.com/carenest-platform/ms-go-refunds/cmd"

func main() {
	cmd.Execute()
}
