package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hyperengineering/vista"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps persistent flags onto config keys. Flags not listed here
// (--config, --json) are not configuration.
var flagKeys = map[string]string{
	"db-path":             "db_path",
	"workspace":           "workspace",
	"can-update-settings": "can_update_settings",
	"redirect-target":     "redirect_target",
	"log-format":          "log_format",
	"log-level":           "log_level",
}

// loadConfig layers configuration: flags > config file > environment > defaults.
func loadConfig(flags *pflag.FlagSet) (vista.Config, error) {
	k := koanf.New(".")

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return vista.Config{}, fmt.Errorf("load config file %s: %w", cfgFile, err)
		}
	}

	provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return vista.Config{}, fmt.Errorf("load flags: %w", err)
	}

	var layered vista.Config
	if err := k.Unmarshal("", &layered); err != nil {
		return vista.Config{}, fmt.Errorf("decode config: %w", err)
	}

	perm, err := vista.ParsePermission(k.String("can_update_settings"))
	if err != nil {
		return vista.Config{}, &vista.ValidationError{Field: "CanUpdateSettings", Message: err.Error()}
	}
	if perm == vista.PermissionUnset {
		if _, err := vista.ParsePermission(os.Getenv("VISTA_CAN_UPDATE_SETTINGS")); err != nil {
			return vista.Config{}, &vista.ValidationError{Field: "CanUpdateSettings", Message: "VISTA_CAN_UPDATE_SETTINGS: " + err.Error()}
		}
	}
	layered.CanUpdateSettings = perm
	layered.LogFormat = strings.ToLower(layered.LogFormat)

	return vista.ConfigFromEnv().Merge(layered), nil
}
