package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/glossary/data/corpus.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/glossary/data/terms.bleve"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "/usr/local/var/glossary/uploads"
	}
	if cfg.Search.SuggestionLimit == 0 {
		cfg.Search.SuggestionLimit = 5
	}
	if cfg.Search.SuggestionCutoff == 0 {
		cfg.Search.SuggestionCutoff = 0.6
	}
	if cfg.Search.PairLimit == 0 {
		cfg.Search.PairLimit = 10
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://" + cfg.Server.Addr()
	}
	if cfg.Client.MaxInFlight == 0 {
		cfg.Client.MaxInFlight = 8
	}
	if cfg.Render.PreviewLimit == 0 {
		cfg.Render.PreviewLimit = 60
	}
	if cfg.Auth.SessionTTLHours == 0 {
		cfg.Auth.SessionTTLHours = 24
	}
	if cfg.Auth.HashCost == 0 {
		cfg.Auth.HashCost = 10
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".csv", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
