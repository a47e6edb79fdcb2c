package config

import (
	"errors"

	"github.com/caarlos0/env/v10"
)

// ErrNoAPIKey is returned when the model provider key is missing;
// without it answer generation cannot run at all.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set")

type Config struct {
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	ChatModel      string `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`

	IndexPath  string `env:"VECTOR_STORE_PATH" envDefault:"./vectorstore"`
	PromptPath string `env:"PROMPT_PATH" envDefault:"./prompt.yaml"`

	Host        string   `env:"HOST" envDefault:"127.0.0.1"`
	Port        int      `env:"PORT" envDefault:"8000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3001"`

	// Optional Postgres DSN for the session/telemetry sink. Empty means
	// the service runs without persistence.
	SessionDSN   string `env:"SESSION_DSN"`
	SessionDebug bool   `env:"SESSION_DEBUG"`

	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"1200"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"200"`

	OCRDPI   int `env:"OCR_DPI" envDefault:"300"`
	MaxPages int `env:"MAX_PAGES" envDefault:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
