package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		OpTimeout string `yaml:"op_timeout"`
	} `yaml:"redis"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Contest struct {
		Name             string `yaml:"name"`
		Timezone         string `yaml:"timezone"`
		SessionTTL       string `yaml:"session_ttl"`
		QuestionTTL      string `yaml:"question_ttl"`
		QuestionsPerQuiz int    `yaml:"questions_per_quiz"`
	} `yaml:"contest"`
	OpenAI struct {
		Model string `yaml:"model"`
	} `yaml:"openai"`
	Data struct {
		Recommendations string `yaml:"recommendations"`
	} `yaml:"data"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
