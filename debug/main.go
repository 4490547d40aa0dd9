package main

import (
	"github.com/emrgen/travelexpense/internal/config"
	"github.com/emrgen/travelexpense/internal/server"
	"github.com/sirupsen/logrus"
)

// runs the server with the demo account and verbose logs
func main() {
	cnf := config.LoadConfig()
	cnf.DemoEnabled = true
	logrus.SetLevel(logrus.DebugLevel)

	err := server.Start(cnf)
	if err != nil {
		logrus.Fatal(err)
	}
}
