package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port           string
	Provider       string
	Model          string
	GeminiAPIKey   string
	GeminiBaseURL  string
	OllamaHost     string
	ExportEnabled  bool
	ExportFile     string
	MaxAnswerRunes int
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "3000")
	c.Provider = getenv("AI_PROVIDER", "gemini")
	c.Model = getenv("AI_MODEL", "gemini-2.0-flash")
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	c.OllamaHost = getenv("OLLAMA_HOST", "http://localhost:11434")
	c.ExportEnabled = getenv("EXPORT_ENABLED", "true") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./catalyst-results.txt")
	c.MaxAnswerRunes = getint("MAX_ANSWER_LENGTH", 50)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
