package config

import (
	"github.com/knadh/koanf/providers/confmap"

	"lembretes/internal/storage"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"addr":       ":8080",
		"static_dir": "./static",
		"tls_cert":   "",
		"tls_key":    "",
		"log_level":  "info",
		"storage":    storage.TypeLocal,
		"local": map[string]interface{}{
			"path": "lembretes.json",
		},
		"jsonbin": map[string]interface{}{
			"base_url":   storage.DefaultJSONBinURL,
			"master_key": "",
			"bin_id":     "",
			"timeout":    15,
		},
		"blob": map[string]interface{}{
			"bucket":     "",
			"key":        storage.DefaultBlobKey,
			"region":     "us-east-1",
			"endpoint":   "",
			"access_key": "",
			"secret_key": "",
		},
		"sqlite": map[string]interface{}{
			"path": "lembretes.db",
		},
		"mongo": map[string]interface{}{
			"uri":      "mongodb://localhost:27017",
			"database": "lembretes",
		},
		"auth": map[string]interface{}{
			"username": "",
			"password": "",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
