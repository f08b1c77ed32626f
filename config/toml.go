package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

var appConfigTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("appConfigFileTemplate")
	if appConfigTemplate, err = tmpl.Parse(defaultAppConfigTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFiles writes config.toml with the cometbft writer and app.toml
// from the embedded template.
func WriteConfigFiles(config *Config) error {
	if err := os.MkdirAll(filepath.Join(config.RootDir, "config"), DefaultDirPerm); err != nil {
		return err
	}
	cmtconfig.WriteConfigFile(config.CometConfigFile(), config.Config)
	return WriteAppConfigFile(config.AppConfigFile(), config.App)
}

// WriteAppConfigFile renders the app section using the template and writes it to configFilePath.
func WriteAppConfigFile(configFilePath string, config *GovAppConfig) error {
	var buffer bytes.Buffer

	if err := appConfigTemplate.Execute(&buffer, config); err != nil {
		return err
	}

	return os.WriteFile(configFilePath, buffer.Bytes(), 0o644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go.
//
//go:embed app.toml.tpl
var defaultAppConfigTemplate string
