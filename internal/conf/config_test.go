package conf

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultValues(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	viper.Reset()
	InitConfig("", false)

	equals(t, 9000, Configuration.Server.HTTPPort, "Default HTTPPort")
	equals(t, false, Configuration.Server.Debug, "Default Debug")
	equals(t, true, Configuration.Cache.Enabled, "Default Cache.Enabled")
}

func TestCatalogPathFromEnvironment(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("DGGSAPI_CATALOG_PATH", "/etc/dggs/catalog.json")
	viper.Reset()
	InitConfig("", false)

	equals(t, "/etc/dggs/catalog.json", Configuration.Catalog.Path, "Catalog.Path from env")
}

func TestConfigFileOverriddenByEnvironment(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	configContent := `
[Server]
HTTPPort = 8080

[Catalog]
Path = "/from/file.json"
`
	tempDir, err := os.MkdirTemp("", "dggs-server_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	configFile := filepath.Join(tempDir, "test_config.toml")
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("DGGSAPI_CATALOG_PATH", "/from/env.json")
	viper.Reset()
	InitConfig(configFile, false)

	equals(t, "/from/env.json", Configuration.Catalog.Path, "Catalog.Path from env overrides file")
	equals(t, 8080, Configuration.Server.HTTPPort, "HTTPPort from file")
}

func TestDebugFlagOverridesConfig(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	viper.Reset()
	InitConfig("", true)

	equals(t, true, Configuration.Server.Debug, "Debug flag forces Server.Debug")
}

func clearConfigEnvVars() {
	envVars := []string{
		"DGGSAPI_CATALOG_PATH",
		"DGGSAPI_SERVER_HTTPPORT",
		"DGGSAPI_SERVER_DEBUG",
	}
	for _, envVar := range envVars {
		os.Unsetenv(envVar)
	}
	Configuration = Config{}
}

func equals(tb testing.TB, exp, act interface{}, msg string) {
	if !reflect.DeepEqual(exp, act) {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("%s:%d: %s - expected: %#v; got: %#v\n", filepath.Base(file), line, msg, exp, act)
		tb.FailNow()
	}
}
