package main

import "github.com/oshokin/arduino-packager/cmd/arduino-packager/cmd"

func main() {
	cmd.Execute()
}
