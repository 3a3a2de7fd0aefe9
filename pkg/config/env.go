package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFiles are read in order after the process environment. A key found in
// an earlier source is never overwritten by a later one.
var EnvFiles = []string{".env.local", ".env"}

// Secrets holds credentials resolved once at startup.
type Secrets struct {
	GeminiAPIKey string
	OpenAIAPIKey string
	RedisURL     string
	Surreal      SurrealSettings
}

type SurrealSettings struct {
	Host      string
	User      string
	Pass      string
	Namespace string
	Database  string
}

// Source is one ordered place to look up a variable.
type Source func(key string) (string, bool)

// EnvSource reads the process environment.
func EnvSource() Source {
	return os.LookupEnv
}

// MapSource wraps values already parsed from a dotenv file.
func MapSource(values map[string]string) Source {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// LoadSecrets resolves secrets from the process environment and then the
// dotenv files in dir. Missing files are skipped.
func LoadSecrets(dir string) (Secrets, error) {
	sources := []Source{EnvSource()}
	for _, name := range EnvFiles {
		values, err := godotenv.Read(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Secrets{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sources = append(sources, MapSource(values))
	}
	return ResolveSecrets(sources...), nil
}

// ResolveSecrets builds Secrets from sources in priority order. Blank values
// count as unset.
func ResolveSecrets(sources ...Source) Secrets {
	get := func(keys ...string) string {
		for _, key := range keys {
			for _, src := range sources {
				if v, ok := src(key); ok && strings.TrimSpace(v) != "" {
					return strings.TrimSpace(v)
				}
			}
		}
		return ""
	}

	s := Secrets{
		GeminiAPIKey: get("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		OpenAIAPIKey: get("OPENAI_API_KEY"),
		RedisURL:     get("REDIS_URL"),
		Surreal: SurrealSettings{
			Host:      get("SURREAL_DB_HOST"),
			User:      get("SURREAL_DB_USER"),
			Pass:      get("SURREAL_DB_PASS"),
			Namespace: get("SURREAL_DB_NAMESPACE"),
			Database:  get("SURREAL_DB_DATABASE"),
		},
	}
	if s.Surreal.Namespace == "" {
		s.Surreal.Namespace = "crappybird"
	}
	if s.Surreal.Database == "" {
		s.Surreal.Database = "bird"
	}
	return s
}

// ProviderKey returns the key for provider or an error naming the missing variable.
func (s Secrets) ProviderKey(provider string) (string, error) {
	switch provider {
	case ProviderGemini:
		if s.GeminiAPIKey == "" {
			return "", fmt.Errorf("missing required environment variable: GEMINI_API_KEY (or GOOGLE_API_KEY)")
		}
		return s.GeminiAPIKey, nil
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" {
			return "", fmt.Errorf("missing required environment variable: OPENAI_API_KEY")
		}
		return s.OpenAIAPIKey, nil
	}
	return "", fmt.Errorf("unknown provider %q", provider)
}

// CheckStore reports the variables the chosen primary store needs.
func (s Secrets) CheckStore(primary string) error {
	switch primary {
	case StoreRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("missing required environment variable: REDIS_URL")
		}
	case StoreSurreal:
		var missing []string
		if s.Surreal.Host == "" {
			missing = append(missing, "SURREAL_DB_HOST")
		}
		if s.Surreal.User == "" {
			missing = append(missing, "SURREAL_DB_USER")
		}
		if s.Surreal.Pass == "" {
			missing = append(missing, "SURREAL_DB_PASS")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}
