package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dshills/asl-go/agent"
	"github.com/dshills/asl-go/agent/anthropicagent"
	"github.com/dshills/asl-go/agent/googleagent"
	"github.com/dshills/asl-go/agent/openaiagent"
	"github.com/dshills/asl-go/asl"
	"gopkg.in/yaml.v3"
)

// RunConfig is the small YAML file aslrun loads to wire agents and storage,
// grounded on the corpus convention (hector, goa-ai) of a config-first CLI
// kept separate from the workflow document itself.
type RunConfig struct {
	Agents  []AgentConfig `yaml:"agents"`
	Store   StoreConfig   `yaml:"store"`
	Metrics bool          `yaml:"metrics"`
	OTel    bool          `yaml:"otel"`
}

// AgentConfig describes one entry in the Registry.
type AgentConfig struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"` // mock, http, anthropic, openai, google
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key_env"` // env var name holding the credential
	Model  string `yaml:"model"`
}

// StoreConfig selects a checkpoint backend (§4.10); Driver defaults to an
// in-memory store when empty.
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite, mysql, redis
	DSN    string `yaml:"dsn"`
}

func loadConfig(path string) (*RunConfig, error) {
	if path == "" {
		return &RunConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// buildRegistry constructs the agent Registry from config, resolving API
// keys from the environment (populated from the --env-file .env by main).
func buildRegistry(cfg *RunConfig) (*asl.Registry, error) {
	reg := asl.NewRegistry()
	for _, ac := range cfg.Agents {
		a, err := buildAgent(ac)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", ac.Name, err)
		}
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildAgent(ac AgentConfig) (asl.Agent, error) {
	apiKey := os.Getenv(ac.APIKey)
	switch ac.Type {
	case "", "mock":
		return &agent.Mock{MockName: ac.Name}, nil
	case "http":
		return agent.NewHTTP(ac.Name, ac.URL), nil
	case "anthropic":
		return anthropicagent.New(ac.Name, apiKey, ac.Model), nil
	case "openai":
		return openaiagent.New(ac.Name, apiKey, ac.Model), nil
	case "google":
		return googleagent.New(context.Background(), ac.Name, apiKey, ac.Model)
	default:
		return nil, fmt.Errorf("unknown agent type %q", ac.Type)
	}
}
