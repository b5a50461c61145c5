package main

import (
	"github.com/isEarth/earth-api/internal/server"
	"github.com/isEarth/earth-api/internal/util"
	"github.com/isEarth/earth-api/pkg/logger"
	"github.com/isEarth/earth-api/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
