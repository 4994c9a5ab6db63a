package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM providers understood by the planner.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Weather  WeatherConfig  `yaml:"weather"`
	Planner  PlannerConfig  `yaml:"planner"`
	Page     PageConfig     `yaml:"page"`
	InFlight InFlightConfig `yaml:"inFlight"`
}

// HTTPConfig controls server level behavior. TrustedProxies lists the peers
// whose X-Forwarded-For is believed when resolving the client IP; empty
// trusts nobody.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	CORSOrigins    []string        `yaml:"corsOrigins"`
	TrustedProxies []string        `yaml:"trustedProxies"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig selects and configures the text generation backend.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"apiKey"`
	BaseURL         string        `yaml:"baseUrl"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int32         `yaml:"maxOutputTokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

// WeatherConfig points at the OpenWeatherMap current weather API.
type WeatherConfig struct {
	APIBaseURL string        `yaml:"apiBaseUrl"`
	APIKey     string        `yaml:"apiKey"`
	Units      string        `yaml:"units"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PlannerConfig holds the prompts sent to the text generator.
type PlannerConfig struct {
	ItineraryPrompt   string `yaml:"itineraryPrompt"`
	SuggestionsPrompt string `yaml:"suggestionsPrompt"`
}

// PageConfig controls the server rendered pages.
type PageConfig struct {
	// APIBaseURL is where page controllers send backend calls. Empty means
	// this server on its loopback interface.
	APIBaseURL    string `yaml:"apiBaseUrl"`
	SessionCookie string `yaml:"sessionCookie"`
}

// InFlightConfig configures the duplicate submission guard.
type InFlightConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for the Valkey backed guard.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// Load reads configuration from a YAML file, a .env file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(os.Getenv("DOTENV_PATH")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadDotEnv populates the process environment from a dotenv file without
// overriding variables that are already set. A missing default file is fine.
func loadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load dotenv file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Address = ":" + v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("HTTP_TRUSTED_PROXIES"); ok {
		cfg.HTTP.TrustedProxies = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := firstEnv("LLM_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := firstEnv("LLM_MODEL", "MODEL_NAME"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_MAX_OUTPUT_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxOutputTokens = int32(parsed)
		}
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("WEATHER_API_BASE_URL"); v != "" {
		cfg.Weather.APIBaseURL = v
	}
	if v := firstEnv("WEATHER_API_KEY", "OPENWEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
	if v := os.Getenv("WEATHER_UNITS"); v != "" {
		cfg.Weather.Units = v
	}
	if v := os.Getenv("PLANNER_ITINERARY_PROMPT"); v != "" {
		cfg.Planner.ItineraryPrompt = v
	}
	if v := os.Getenv("PLANNER_SUGGESTIONS_PROMPT"); v != "" {
		cfg.Planner.SuggestionsPrompt = v
	}
	if v := os.Getenv("PAGE_API_BASE_URL"); v != "" {
		cfg.Page.APIBaseURL = v
	}
	if v := os.Getenv("INFLIGHT_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.InFlight.TTL = parsed
		}
	}
	if v := os.Getenv("INFLIGHT_REDIS_ENABLED"); v != "" {
		cfg.InFlight.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("INFLIGHT_REDIS_ADDR"); v != "" {
		cfg.InFlight.Redis.Addr = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   3 * time.Minute,
			TrustedProxies: []string{"127.0.0.1", "::1"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		LLM: LLMConfig{
			Provider:        ProviderGemini,
			Model:           "models/gemini-2.5-flash",
			Temperature:     0.7,
			MaxOutputTokens: 2048,
			Timeout:         2 * time.Minute,
		},
		Weather: WeatherConfig{
			APIBaseURL: "https://api.openweathermap.org/data/2.5/weather",
			Units:      "metric",
			Timeout:    10 * time.Second,
		},
		Planner: PlannerConfig{
			ItineraryPrompt:   "Create a detailed, day-by-day travel itinerary for a trip to %s for %s days. The traveler is interested in %s. Format the output in clean Markdown.",
			SuggestionsPrompt: "Suggest 5 interesting and diverse travel destinations. For each destination, provide: the name, a one-sentence highlight, and the best time to travel. Format as a Markdown list.",
		},
		Page: PageConfig{
			SessionCookie: "tg_session",
		},
		InFlight: InFlightConfig{
			TTL: 3 * time.Minute,
			Redis: RedisConfig{
				Prefix: "travelguide:inflight",
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.MaxOutputTokens < 0 {
		return errors.New("llm.maxOutputTokens cannot be negative")
	}
	if c.Weather.APIBaseURL == "" {
		return errors.New("weather.apiBaseUrl cannot be empty")
	}
	if strings.Count(c.Planner.ItineraryPrompt, "%s") != 3 {
		return errors.New("planner.itineraryPrompt must contain three %s verbs (destination, days, interests)")
	}
	if strings.TrimSpace(c.Planner.SuggestionsPrompt) == "" {
		return errors.New("planner.suggestionsPrompt cannot be empty")
	}
	if strings.TrimSpace(c.Page.SessionCookie) == "" {
		return errors.New("page.sessionCookie cannot be empty")
	}
	if c.InFlight.TTL <= 0 {
		return errors.New("inFlight.ttl must be positive")
	}
	if c.InFlight.Redis.Enabled && strings.TrimSpace(c.InFlight.Redis.Addr) == "" {
		return errors.New("inFlight.redis.addr cannot be empty when redis guard is enabled")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
