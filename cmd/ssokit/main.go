package main

import "github.com/ditoolkit/ssokit/cmd/ssokit/cmd"

func main() {
	cmd.Execute()
}
