package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentFlagsAreBoundToViper(t *testing.T) {
	flags := map[string]string{
		"config": "/tmp/custom.yml",
		"api":    "https://api.example.com",
		"token":  "secret",
		"output": "json",
	}

	for name, value := range flags {
		require.NoError(t, rootCmd.PersistentFlags().Set(name, value))
		assert.Equal(t, value, viper.GetString(name), "flag %q should reach viper", name)
	}
}
