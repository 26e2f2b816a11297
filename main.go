package main

/*
# Running
Usage: ./dggs-server [ -d ] [ --config /path/to/config.yaml ] [ --catalog-path /path/to/catalog.json ]

Browser: e.g. http://localhost:9000/

# Configuration
The DGGS configuration document path (spec §6) is set via the
`DGGSAPI_CATALOG_PATH` env var or the --catalog-path flag.

# Logging
Logging to stdout
*/

import (
	"fmt"
	"os"

	"github.com/pborman/getopt/v2"
	log "github.com/sirupsen/logrus"

	"github.com/crim-ca/dggs-server/internal/conf"
	"github.com/crim-ca/dggs-server/internal/registry"
	"github.com/crim-ca/dggs-server/internal/service"
)

var flagHelp bool
var flagVersion bool
var flagDebugOn bool
var flagConfigFilename string
var flagCatalogPath string

func init() {
	initCommandOptions()
}

func initCommandOptions() {
	getopt.FlagLong(&flagHelp, "help", '?', "Show command usage")
	getopt.FlagLong(&flagConfigFilename, "config", 'c', "", "config file name")
	getopt.FlagLong(&flagDebugOn, "debug", 'd', "Set logging level to TRACE")
	getopt.FlagLong(&flagVersion, "version", 'v', "Output the version information")
	getopt.FlagLong(&flagCatalogPath, "catalog-path", 0, "", "Path to the DGGS configuration document")
}

func main() {
	getopt.Parse()

	if flagHelp {
		getopt.Usage()
		os.Exit(1)
	}

	if flagVersion {
		fmt.Printf("%s %s\n", conf.AppConfig.Name, conf.AppConfig.Version)
		os.Exit(1)
	}

	log.Infof("----  %s - Version %s ----------\n", conf.AppConfig.Name, conf.AppConfig.Version)

	conf.InitConfig(flagConfigFilename, flagDebugOn)

	if flagCatalogPath != "" {
		conf.Configuration.Catalog.Path = flagCatalogPath
	}

	if flagDebugOn || conf.Configuration.Server.Debug {
		log.SetLevel(log.TraceLevel)
		log.Debugf("Log level = TRACE\n")
	}
	conf.DumpConfig()

	if conf.Configuration.Catalog.Path == "" {
		log.Fatal("no DGGS configuration document configured: set --catalog-path or DGGSAPI_CATALOG_PATH")
	}

	doc, err := conf.LoadCatalogDocument("")
	if err != nil {
		log.Fatalf("error loading catalog document: %v", err)
	}

	registerCollectionConstructors()

	reg, err := registry.Build(doc)
	if err != nil {
		log.Fatalf("error building registry: %v", err)
	}

	if err := service.Initialize(reg); err != nil {
		log.Fatalf("error initializing service: %v", err)
	}

	if err := service.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
