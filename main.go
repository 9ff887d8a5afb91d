package main

import (
	"medibook/configuration"
	"medibook/controllers"
	"medibook/routes"

	"github.com/sirupsen/logrus"
)

func main() {
	configuration.ConfigDB()
	configuration.InitRedis()
	controllers.InitGateway()

	r := routes.SetupRouter()
	if err := r.Run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
