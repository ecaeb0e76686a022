package main

import (
	"log"

	"github.com/St1cky1/service-tasks/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
