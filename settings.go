package vista

import (
	"context"
	"strconv"
	"strings"
)

// Setting keys read by the default dataset resolver.
const (
	SettingDefaultDataset   = "defaultIndex"
	SettingQueryEnhancement = "query:enhancements:enabled"
)

// SettingsStore is a string key-value store for user settings.
// Get returns "" for a key that is not set.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// DatasetRegistry lists the IDs of datasets that currently exist.
// Order is significant: the first ID is the fallback default.
type DatasetRegistry interface {
	DatasetIDs(ctx context.Context) ([]string, error)
}

// Truthy reports whether a stored setting value means "on".
// Values strconv.ParseBool rejects (including "") are off.
func Truthy(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}
