// Package config provides functionality for managing configuration
// options for the application using command-line flags, environment
// variables and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address"`

	// MongoURI holds the MongoDB connection string.
	MongoURI string `json:"mongo_uri"`

	// Database is the name of the MongoDB database to use.
	Database string `json:"database"`

	// TokenSecret is the secret used to sign session tokens.
	// It is never read from flags or the config file, only from the
	// environment, to keep secret material out of argv and disk.
	TokenSecret string `json:"-"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:3000", "run on ip:port server")
	flag.StringVar(&options.MongoURI, "d", "mongodb://localhost:27017", "mongodb connection uri")
	flag.StringVar(&options.Database, "db", "todoapp", "mongodb database name")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values. Environment variables take
// precedence over the config file, which takes precedence over flags.
func Parse() *Options {
	flag.Parse()
	return resolve(options)
}

// resolve applies the config file and environment overrides to opts.
func resolve(opts *Options) *Options {
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			data, err := os.ReadFile(opts.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, opts); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Address = serverAddress
	}
	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		opts.MongoURI = mongoURI
	}
	if database := os.Getenv("MONGO_DB"); database != "" {
		opts.Database = database
	}
	opts.TokenSecret = os.Getenv("TOKEN_SECRET")

	return opts
}
