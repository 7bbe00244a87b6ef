package main

import (
	"fmt"

	"github.com/DataONEorg/d1-solr-extensions/constants"
)

var (
	version_cmd = app.Command("version", "Report the binary version.")
)

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		if command == version_cmd.FullCommand() {
			fmt.Printf("d1-solr-extensions %v\n", constants.VERSION)
			return true
		}
		return false
	})
}
