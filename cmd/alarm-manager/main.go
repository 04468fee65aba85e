package main

import "github.com/oshokin/alarm-manager/cmd/alarm-manager/cmd"

func main() {
	cmd.Execute()
}
