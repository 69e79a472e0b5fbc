package main

import (
	"rasterview/internal/app"
)

func main() {
	app.Run()
}
