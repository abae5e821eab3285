package main

import "github.com/jsphweid/backingband/cmd"

func main() {
	cmd.Execute()
}
