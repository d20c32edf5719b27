package main

import (
	"log"
	"os"

	"s3transfer/cmd"
	"s3transfer/config"
)

func main() {
	cnf, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cmd.Execute(cnf); err != nil {
		log.Printf("Failed to execute command: %v", err)
		os.Exit(1)
	}
}
