package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/taskboard/backend/pkg/utils/keygen"
)

func main() {
	app := kingpin.New("keygen", "Generate an admin API key for the task board server.")
	length := app.Flag("length", "Number of characters in the key.").Short('l').Default("40").Int()
	env := app.Flag("env", "Print as an environment assignment.").Bool()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	key, err := keygen.GenerateAPIKey(*length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to generate admin API key: %s\n", err)
		os.Exit(1)
	}

	if *env {
		fmt.Printf("TASKBOARD_AUTH_ADMIN_API_KEY=%s\n", key)
		return
	}
	fmt.Println(key)
}
