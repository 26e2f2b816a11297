// Package conf holds the server's runtime configuration, grounded on
// the teacher's viper-based InitConfig/Configuration pattern
// (internal/conf/config_test.go), adapted to a DGGS server: HTTP
// server settings, the path to the DGGS configuration document (spec
// §6), tile-cache sizing, and service metadata.
package conf

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/crim-ca/dggs-server/internal/registry"
)

var setVersion string = "0.1.0"

// AppConfiguration mirrors the teacher's AppConfig: static name/version
// metadata that doesn't belong in the env/file-driven Config.
type AppConfiguration struct {
	Name      string
	Version   string
	EnvPrefix string
}

var AppConfig = AppConfiguration{
	Name:      "dggs-server",
	Version:   setVersion,
	EnvPrefix: "DGGSAPI",
}

// Config is the env/file-driven runtime configuration (spec §5's
// server settings plus the catalog document location).
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Data     DataConfig
	Cache    CacheConfig
	Metadata MetadataConfig
}

type ServerConfig struct {
	HTTPPort   int
	Debug      bool
	BasePath   string
	AssetsPath string
	DisableUi  bool
}

// CatalogConfig locates the DGGS configuration document (spec §6)
// this server loads at startup via internal/registry.
type CatalogConfig struct {
	Path string
}

// DataConfig locates the runtime resources the collection-provider
// constructors close over (spec §6): the DuckDB database backing SQL/
// Parquet datasources, and the filesystem root Zarr datasources are
// read from.
type DataConfig struct {
	DuckDBPath             string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
	ZarrRoot               string
}

type CacheConfig struct {
	Enabled            bool
	MaxItems           int
	MaxMemoryMB         int
	BrowserCacheMaxAge int
	DisableApi         bool
	ApiKey             string
}

type MetadataConfig struct {
	Title       string
	Description string
}

// Configuration is the process-wide configuration, populated by
// InitConfig.
var Configuration Config

// InitConfig loads configuration from (in ascending priority) defaults,
// an optional config file, and environment variables prefixed
// `DGGSAPI_`, the same three-tier precedence the teacher's InitConfig
// implements with viper.
func InitConfig(configFile string, debug bool) {
	viper.SetEnvPrefix(AppConfig.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("Server.HTTPPort", 9000)
	viper.SetDefault("Server.Debug", false)
	viper.SetDefault("Server.BasePath", "")
	viper.SetDefault("Server.AssetsPath", "assets")
	viper.SetDefault("Server.DisableUi", false)
	viper.SetDefault("Catalog.Path", "")
	viper.SetDefault("Data.DuckDBPath", "")
	viper.SetDefault("Data.MaxOpenConns", 4)
	viper.SetDefault("Data.MaxIdleConns", 4)
	viper.SetDefault("Data.ConnMaxLifetimeSeconds", 3600)
	viper.SetDefault("Data.ConnMaxIdleTimeSeconds", 300)
	viper.SetDefault("Data.ZarrRoot", "")
	viper.SetDefault("Cache.Enabled", true)
	viper.SetDefault("Cache.MaxItems", 10000)
	viper.SetDefault("Cache.MaxMemoryMB", 256)
	viper.SetDefault("Cache.BrowserCacheMaxAge", 3600)
	viper.SetDefault("Cache.DisableApi", false)
	viper.SetDefault("Cache.ApiKey", "")
	viper.SetDefault("Metadata.Title", "DGGS API")
	viper.SetDefault("Metadata.Description", "OGC API - Discrete Global Grid Systems")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Warnf("Unable to read config file %s: %v", configFile, err)
		}
	}

	if err := viper.Unmarshal(&Configuration); err != nil {
		log.Warnf("Unable to unmarshal configuration: %v", err)
	}

	if debug {
		Configuration.Server.Debug = true
	}
}

// LoadCatalogDocument reads the DGGS configuration document (spec §6
// "Configuration document") from Configuration.Catalog.Path (or path,
// if non-empty, overriding it). This is a viper-free plain JSON load,
// kept distinct from server settings since it models domain entities
// (dggrs/collection_providers/collections) rather than server knobs.
func LoadCatalogDocument(path string) (*registry.Document, error) {
	if path == "" {
		path = Configuration.Catalog.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return registry.LoadDocument(f)
}

// DumpConfig logs the effective configuration at startup, mirroring
// the teacher's main()'s conf.DumpConfig() call.
func DumpConfig() {
	log.Infof("Server: port=%d basePath=%q debug=%v disableUi=%v",
		Configuration.Server.HTTPPort, Configuration.Server.BasePath, Configuration.Server.Debug, Configuration.Server.DisableUi)
	log.Infof("Catalog: path=%q", Configuration.Catalog.Path)
	log.Infof("Data: duckDBPath=%q zarrRoot=%q maxOpenConns=%d maxIdleConns=%d",
		Configuration.Data.DuckDBPath, Configuration.Data.ZarrRoot, Configuration.Data.MaxOpenConns, Configuration.Data.MaxIdleConns)
	log.Infof("Cache: enabled=%v maxItems=%d maxMemoryMB=%d", Configuration.Cache.Enabled, Configuration.Cache.MaxItems, Configuration.Cache.MaxMemoryMB)
}
