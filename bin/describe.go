package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/DataONEorg/d1-solr-extensions/description"
)

var (
	describe_cmd = app.Command(
		"describe", "Print the query engine description document.")

	describe_fields_only = describe_cmd.Flag(
		"fields_only", "Only dump the configured field descriptions.").
		Bool()

	describe_log_index = describe_cmd.Flag(
		"log_index", "Describe the event log index instead of the "+
			"search index.").Bool()
)

func doDescribe() error {
	config_obj, err := load_config()
	if err != nil {
		return err
	}

	desc := config_obj.Description
	if *describe_log_index {
		desc = config_obj.LogDescription
	}

	assembler := description.NewAssembler(config_obj, desc,
		description.NewSolrSchemaProvider(config_obj))

	if *describe_fields_only {
		for _, name := range assembler.FieldDescriptions().Keys() {
			value, _ := assembler.FieldDescriptions().GetString(name)
			fmt.Printf("%s=%s\n", name, value)
		}
		return nil
	}

	qed, err := assembler.Describe(context.Background())
	if err != nil {
		return err
	}

	serialized, err := xml.MarshalIndent(qed, "", "  ")
	if err != nil {
		return err
	}

	_, _ = os.Stdout.Write(append(serialized, '\n'))
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		if command == describe_cmd.FullCommand() {
			err := doDescribe()
			kingpin.FatalIfError(err, "describe")
			return true
		}
		return false
	})
}
