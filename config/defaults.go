package config

import "time"

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: Server{
			ListenAddr:     ":8005",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 60 * time.Second,
			RateLimitRPS:   0,
			RateLimitBurst: 20,
		},
		Auth: Auth{
			APIKeys:  []string{"default-api-key"},
			AccessDB: "",
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		CORS: CORS{
			AllowOrigin:  "*",
			AllowMethods: "GET, POST, OPTIONS",
			AllowHeaders: "Authorization, Content-Type, X-Requested-With",
		},
		Mounts: []MountConfig{
			{Key: "local", Driver: "memory"},
		},
	}
}
