package main

import (
	"fmt"
	"os"

	"github.com/akarpov87/termvault/internal/budgetapp"
)

func main() {
	if err := budgetapp.NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
