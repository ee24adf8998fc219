// Package config handles service configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	// Persistence
	MongoURI      string
	MongoDatabase string

	// Identity provider
	IdentityURL string

	// Azure Fast Transcription
	SpeechKey      string
	SpeechEndpoint string
	SpeechLocale   string

	// OpenAI-compatible chat completion endpoint
	LLMKey      string
	LLMEndpoint string
	LLMModel    string

	// Blob storage for raw audio
	StorageURL    string
	StorageKey    string
	StorageBucket string

	// Microphone capture for live recording
	SampleRate int

	// Live pipeline cadence and insight limits
	ChunkInterval     time.Duration
	MaxContextChars   int
	MaxPreviousPoints int

	AllowedAudioTypes []string
}

func Load() *Config {
	return &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "flownote"),
		IdentityURL:       getEnv("IDENTITY_URL", ""),
		SpeechKey:         getEnv("AZURE_SPEECH_KEY", ""),
		SpeechEndpoint:    getEnv("AZURE_SPEECH_ENDPOINT", ""),
		SpeechLocale:      getEnv("AZURE_SPEECH_LOCALE", "en-US"),
		LLMKey:            getEnv("LLM_API_KEY", ""),
		LLMEndpoint:       getEnv("LLM_ENDPOINT", ""),
		LLMModel:          getEnv("LLM_MODEL", "openai-gpt-oss-120b"),
		StorageURL:        getEnv("STORAGE_URL", ""),
		StorageKey:        getEnv("STORAGE_KEY", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", "lecture-audio"),
		SampleRate:        getEnvInt("SAMPLE_RATE", 16000),
		ChunkInterval:     getEnvDuration("CHUNK_INTERVAL", time.Minute),
		MaxContextChars:   getEnvInt("MAX_CONTEXT_CHARS", 1000),
		MaxPreviousPoints: getEnvInt("MAX_PREVIOUS_POINTS", 20),
		AllowedAudioTypes: getEnvList("ALLOWED_AUDIO_TYPES", []string{
			"audio/mpeg", "audio/mp3", "audio/wav", "audio/m4a", "audio/mp4", "audio/x-m4a",
		}),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
