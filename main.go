package main

import (
	"equipviz.dev/backend/cmd/app"
)

// @title          Equipment Visualizer API
// @version        1.0.0
// @description    Accepts equipment sensor exports and summarizes them. Keeps the five most recent summaries.
// @license.name   MIT License
// @license.url    https://opensource.org/licenses/MIT
// @BasePath       /api
func main() {
	app.Run()
}
