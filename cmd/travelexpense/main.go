package main

import "github.com/emrgen/travelexpense/cmd"

func main() {
	cmd.Execute()
}
