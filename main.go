package main

import "github.com/meysamhadeli/codoc/cmd"

func main() {
	cmd.Execute()
}
