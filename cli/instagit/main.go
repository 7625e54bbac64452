package main

import (
	"os"

	instagitcmder "github.com/papercomputeco/instagit/cmd/instagit"
)

func main() {
	cmd := instagitcmder.NewInstagitCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
