package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = ".tabemono/foods.json"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "json"
	}
	if cfg.Storage.EntriesPath == "" {
		cfg.Storage.EntriesPath = ".tabemono/log.json"
	}
	if cfg.Storage.GoalsPath == "" {
		cfg.Storage.GoalsPath = ".tabemono/goals.json"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".tabemono/tracker.db"
	}
	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "none"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Embedding.CachePath == "" {
		cfg.Embedding.CachePath = ".tabemono/food_text_embeddings.bin.gz"
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = "gpt-4o-mini"
	}
	if cfg.Vision.TimeoutSeconds == 0 {
		cfg.Vision.TimeoutSeconds = 60
	}
	if cfg.Recognition.DefaultTopK == 0 {
		cfg.Recognition.DefaultTopK = 3
	}
	if cfg.Recognition.MaxTopK == 0 {
		cfg.Recognition.MaxTopK = 25
	}
}
