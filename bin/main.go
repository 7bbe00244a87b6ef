package main

import (
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DataONEorg/d1-solr-extensions/config"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("d1-solr-extensions",
		"DataONE authorization filtering proxy for Solr query services.")

	config_path = app.Flag("config", "The configuration file.").
			Short('c').Envar("D1_SOLR_EXTENSIONS_CONFIG").String()

	verbose_flag = app.Flag(
		"verbose", "Enable verbose logging.").Short('v').
		Default("false").Bool()

	command_handlers []CommandHandler
)

func load_config() (*config.Config, error) {
	if *config_path == "" {
		result := config.GetDefaultConfig()
		result.Verbose = *verbose_flag
		return result, nil
	}

	result, err := config.LoadConfig(*config_path)
	if err != nil {
		return nil, err
	}
	if *verbose_flag {
		result.Verbose = true
	}
	return result, nil
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	for _, handler := range command_handlers {
		if handler(command) {
			return
		}
	}
}
