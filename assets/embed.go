// Package assets embeds the built-in visual profiles and hero text.
package assets

import "embed"

// ProfilesFS holds one YAML document per named visual profile.
//
//go:embed profiles/*.yaml
var ProfilesFS embed.FS

// HeroYAML is the bilingual hero line typed out by the typewriter overlay.
//
//go:embed hero.yaml
var HeroYAML []byte
