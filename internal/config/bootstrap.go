package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnsureUserConfig returns the path of the user's config file inside dataDir,
// seeding it from defaultPath (or from Default() when that file is missing).
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		b, merr := yaml.Marshal(Default())
		if merr != nil {
			return "", merr
		}
		return userPath, os.WriteFile(userPath, b, 0o644)
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

// Default is the built-in configuration: four service categories (translation
// and session music work) and the known listing sites.
func Default() Config {
	var cfg Config
	cfg.Schedule.Daily = []string{"08:00", "18:00"}
	cfg.Categories = []Category{
		{
			Name:        "English to Hebrew translation",
			Terms:       []string{"English to Hebrew translation", "translate English Hebrew", "Hebrew English translator", "Hebrew translator", "English Hebrew localization"},
			HebrewTerms: []string{"תרגום מאנגלית לעברית", "מתרגם עברית אנגלית"},
		},
		{
			Name:        "Song translation (light music)",
			Terms:       []string{"song translation music", "light music translation", "music translation lyrics", "lyrics translation", "song adaptation"},
			HebrewTerms: []string{"תרגום שירים"},
		},
		{
			Name:  "Piano recording (session musician)",
			Terms: []string{"piano recording", "session pianist", "remote piano session", "piano for song", "midi piano recording"},
		},
		{
			Name:  "Vocal recording (harmony recording)",
			Terms: []string{"vocal recording", "harmony vocalist", "backing vocals recording", "session singer harmony", "vocal harmony arrangements"},
		},
	}
	cfg.Platforms = []Platform{
		{Name: "upwork", Enabled: true},
		{Name: "freelancer", Enabled: false},
		{Name: "fiverr", Enabled: false, ClientIntent: true},
		{Name: "janglo", Enabled: false},
		{Name: "xplace", Enabled: false, HebrewTerms: true},
		{Name: "alljobs", Enabled: false, HebrewTerms: true, Pages: 2},
		{Name: "jobmaster", Enabled: false, HebrewTerms: true},
	}
	ApplyDefaults(&cfg)
	return cfg
}
