package main

import (
	"os"

	"github.com/schmitthub/ctfdocker/internal/ctfdocker"
)

func main() {
	os.Exit(ctfdocker.Main())
}
