package main

import "agroguide_backend/internal/app"

func main() {
	app.Run()
}
