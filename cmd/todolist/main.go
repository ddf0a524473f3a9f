// Command todolist serves the multi-user todo list REST API.
package main

import (
	"log"

	"github.com/patric-chuzhbe/todolist/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatal(err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		application.Close()
		log.Fatal(err)
	}
}
