package utils

import (
	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// LoadTOMLFile loads and parses a TOML file into the provided struct
func LoadTOMLFile(configPath string, config interface{}) error {
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Warnf("TOML parsing error in config file %s: %v", configPath, err)
		return err
	}
	return nil
}

// IsASCIILower reports whether every byte of s is an ASCII lowercase letter.
func IsASCIILower(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// IsPinyin reports whether s consists of ASCII lowercase letters and the
// syllable delimiter '\''.
func IsPinyin(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			continue
		}
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
