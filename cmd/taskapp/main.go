package main

import (
	"fmt"
	"os"

	"github.com/akarpov87/termvault/internal/taskapp"
)

func main() {
	if err := taskapp.NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
