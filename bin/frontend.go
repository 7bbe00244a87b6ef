package main

import (
	"net/http"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DataONEorg/d1-solr-extensions/logging"
	"github.com/DataONEorg/d1-solr-extensions/server"
)

var (
	frontend_cmd = app.Command(
		"frontend", "Run the authorization filtering proxy.")
)

func doFrontend() error {
	config_obj, err := load_config()
	if err != nil {
		return err
	}

	logger := logging.GetLogger(config_obj, &logging.FrontendComponent)
	logger.Info("Starting d1-solr-extensions frontend against %s",
		config_obj.Frontend.SolrURL)

	mux := http.NewServeMux()
	err = server.PrepareMux(config_obj, mux)
	if err != nil {
		return err
	}

	return server.StartFrontend(config_obj, mux)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		if command == frontend_cmd.FullCommand() {
			err := doFrontend()
			kingpin.FatalIfError(err, "frontend")
			return true
		}
		return false
	})
}
