package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/vista"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vista.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Precedence(t *testing.T) {
	testEnv(t)
	t.Setenv("VISTA_REDIRECT_TARGET", "/from-env")
	t.Setenv("VISTA_LOG_LEVEL", "warn")
	resetFlags(rootCmd)

	cfgFile = writeConfigFile(t, `
workspace: team-a
redirect_target: /from-file
log_format: JSON
can_update_settings: false
`)
	t.Cleanup(func() { cfgFile = "" })

	flags := rootCmd.PersistentFlags()
	if err := flags.Set("redirect-target", "/from-flag"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.RedirectTarget != "/from-flag" {
		t.Errorf("RedirectTarget = %q, want flag value", cfg.RedirectTarget)
	}
	if cfg.Workspace != "team-a" {
		t.Errorf("Workspace = %q, want file value", cfg.Workspace)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env value", cfg.LogLevel)
	}
	if cfg.CanUpdateSettings != vista.PermissionDenied {
		t.Errorf("CanUpdateSettings = %v, want denied", cfg.CanUpdateSettings)
	}
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	dbPath := testEnv(t)
	t.Setenv("VISTA_CAN_UPDATE_SETTINGS", "true")
	resetFlags(rootCmd)

	cfg, err := loadConfig(rootCmd.PersistentFlags())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LocalPath != dbPath {
		t.Errorf("LocalPath = %q, want %q", cfg.LocalPath, dbPath)
	}
	if cfg.CanUpdateSettings != vista.PermissionAllowed {
		t.Errorf("CanUpdateSettings = %v, want allowed", cfg.CanUpdateSettings)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	testEnv(t)
	resetFlags(rootCmd)
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = "" })

	if _, err := loadConfig(rootCmd.PersistentFlags()); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfig_InvalidPermission(t *testing.T) {
	testEnv(t)
	resetFlags(rootCmd)
	if err := rootCmd.PersistentFlags().Set("can-update-settings", "sometimes"); err != nil {
		t.Fatal(err)
	}

	_, err := loadConfig(rootCmd.PersistentFlags())
	var ve *vista.ValidationError
	if !errors.As(err, &ve) || ve.Field != "CanUpdateSettings" {
		t.Errorf("err = %v, want CanUpdateSettings ValidationError", err)
	}
}

func TestLoadConfig_InvalidPermissionFromEnv(t *testing.T) {
	testEnv(t)
	resetFlags(rootCmd)
	t.Setenv("VISTA_CAN_UPDATE_SETTINGS", "off")

	_, err := loadConfig(rootCmd.PersistentFlags())
	var ve *vista.ValidationError
	if !errors.As(err, &ve) || ve.Field != "CanUpdateSettings" {
		t.Errorf("err = %v, want CanUpdateSettings ValidationError", err)
	}

	if err := rootCmd.PersistentFlags().Set("can-update-settings", "false"); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(rootCmd.PersistentFlags())
	if err != nil {
		t.Fatalf("loadConfig() with flag override error = %v", err)
	}
	if cfg.CanUpdateSettings != vista.PermissionDenied {
		t.Errorf("CanUpdateSettings = %v, want denied", cfg.CanUpdateSettings)
	}
}
