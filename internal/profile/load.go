package profile

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/MeKo-Tech/contourbg/assets"
	"github.com/spf13/viper"
)

// DefaultName is the preset used when none is requested.
const DefaultName = "portfolio"

// EnvPrefix prefixes environment overrides, e.g. CONTOURBG_PROFILE_ROTATION.
const EnvPrefix = "CONTOURBG_PROFILE"

// Names lists the embedded presets.
func Names() []string {
	entries, err := fs.ReadDir(assets.ProfilesFS, "profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Default returns the default preset. It panics if the embedded profile is
// broken, which only a bad build can cause.
func Default() Profile {
	p, err := Load(DefaultName, "")
	if err != nil {
		panic(fmt.Sprintf("embedded profile %s: %v", DefaultName, err))
	}
	return p
}

// Raw returns the embedded YAML of a preset.
func Raw(name string) ([]byte, error) {
	data, err := assets.ProfilesFS.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Load reads the named preset and, when overridePath is non-empty, merges the
// YAML file at that path over it. Environment variables with EnvPrefix
// override individual keys.
func Load(name, overridePath string) (Profile, error) {
	if name == "" {
		name = DefaultName
	}

	data, err := Raw(name)
	if err != nil {
		return Profile{}, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", name, err)
	}

	if overridePath != "" {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return Profile{}, fmt.Errorf("failed to merge profile file %s: %w", overridePath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile %s: %w", name, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
