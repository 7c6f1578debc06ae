package main

import (
	"github.com/corray333/backend-labs/bookstore/internal/app"
	"github.com/corray333/backend-labs/bookstore/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
