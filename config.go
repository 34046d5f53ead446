package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/CrowderSoup/taskboard/database"
	"github.com/CrowderSoup/taskboard/services"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the taskboard binary can be told from the
// environment, a .env file or a YAML config file.
type Config struct {
	Port                 string        `mapstructure:"port"`
	Store                string        `mapstructure:"store"`
	SQLitePath           string        `mapstructure:"sqlite_path"`
	DatabaseURL          string        `mapstructure:"database_url"`
	FirestoreProject     string        `mapstructure:"firestore_project"`
	FirestoreCredentials string        `mapstructure:"firestore_credentials"`
	FirestoreCollection  string        `mapstructure:"firestore_collection"`
	TickInterval         time.Duration `mapstructure:"tick_interval"`
	Timezone             string        `mapstructure:"timezone"`
	StaticDir            string        `mapstructure:"static_dir"`
	CORSOrigins          []string      `mapstructure:"cors_origins"`
}

// LoadEnv loads environment variables from a .env file. A missing file is
// not an error.
func LoadEnv(filename string) error {
	if err := godotenv.Load(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("store", database.BackendSQLite)
	v.SetDefault("sqlite_path", "./taskboard.db")
	v.SetDefault("database_url", "")
	v.SetDefault("firestore_project", "")
	v.SetDefault("firestore_credentials", "")
	v.SetDefault("firestore_collection", database.DefaultFirestoreCollection)
	v.SetDefault("tick_interval", services.DefaultTickInterval)
	v.SetDefault("timezone", "Local")
	v.SetDefault("static_dir", "./web")
	v.SetDefault("cors_origins", []string{"*"})
}

// LoadConfig merges defaults, TASKBOARD_* environment variables and the
// optional config file at path.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKBOARD")
	v.AutomaticEnv()
	// PORT is honoured for hosts that set it.
	if err := v.BindEnv("port", "TASKBOARD_PORT", "PORT"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		log.Printf("Using config file %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured timezone used to read task datetimes.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StoreOptions describes the configured key-value backend.
func (c *Config) StoreOptions() database.Options {
	return database.Options{
		Backend:              c.Store,
		SQLitePath:           c.SQLitePath,
		PostgresURL:          c.DatabaseURL,
		FirestoreProject:     c.FirestoreProject,
		FirestoreCredentials: c.FirestoreCredentials,
		FirestoreCollection:  c.FirestoreCollection,
	}
}

// MarshalYAML renders the config with its file keys and a readable interval.
func (c Config) MarshalYAML() (any, error) {
	return struct {
		Port                 string   `yaml:"port"`
		Store                string   `yaml:"store"`
		SQLitePath           string   `yaml:"sqlite_path"`
		DatabaseURL          string   `yaml:"database_url"`
		FirestoreProject     string   `yaml:"firestore_project"`
		FirestoreCredentials string   `yaml:"firestore_credentials"`
		FirestoreCollection  string   `yaml:"firestore_collection"`
		TickInterval         string   `yaml:"tick_interval"`
		Timezone             string   `yaml:"timezone"`
		StaticDir            string   `yaml:"static_dir"`
		CORSOrigins          []string `yaml:"cors_origins"`
	}{
		Port:                 c.Port,
		Store:                c.Store,
		SQLitePath:           c.SQLitePath,
		DatabaseURL:          c.DatabaseURL,
		FirestoreProject:     c.FirestoreProject,
		FirestoreCredentials: c.FirestoreCredentials,
		FirestoreCollection:  c.FirestoreCollection,
		TickInterval:         c.TickInterval.String(),
		Timezone:             c.Timezone,
		StaticDir:            c.StaticDir,
		CORSOrigins:          c.CORSOrigins,
	}, nil
}
