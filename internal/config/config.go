package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Logger struct {
	Level string `yaml:"level"`
}

type Global struct {
	Logger Logger `yaml:"logger"`
}

type Source struct {
	ConnectionString string `yaml:"connection_string"`
	Table            string `yaml:"table"`
}

type Artifacts struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type S3 struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Prefix         string `yaml:"prefix"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

type Repository struct {
	Type string `yaml:"type"`
	S3   S3     `yaml:"s3"`
}

type Schedule struct {
	Cron string `yaml:"cron"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Exporter struct {
	Name             string     `yaml:"name"`
	Source           Source     `yaml:"source"`
	Artifacts        Artifacts  `yaml:"artifacts"`
	Repository       Repository `yaml:"repository"`
	Schedule         Schedule   `yaml:"schedule"`
	HTTP             HTTP       `yaml:"http"`
	PublicBaseURL    string     `yaml:"public_base_url"`
	StalenessMinutes int        `yaml:"staleness_minutes"`
}

type Feedsmith struct {
	Global   Global   `yaml:"global"`
	Exporter Exporter `yaml:"exporter"`
}

func NewFeedsmithFromFile(fpath string) (*Feedsmith, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	var feedsmith Feedsmith
	if err := yaml.Unmarshal(bs, &feedsmith); err != nil {
		return nil, err
	}

	return &feedsmith, nil
}
