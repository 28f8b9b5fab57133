package config

const (
	defaultDataDir          = "~/.local/share/triage/data"
	defaultLogDir           = "~/.local/share/triage/logs"
	defaultAPIBind          = "127.0.0.1:7492"
	defaultClassifierModel  = "claude-sonnet-4-5"
	defaultClassifierTokens = 1024
	defaultClassifierTime   = 30
	defaultThreshold        = 0.7
	defaultDescriptionLimit = 300
	defaultWorkerCount      = 3
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults. The priority
// keyword tiers mirror the triage team's standing escalation rules; operators
// override them per deployment.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Classifier: Classifier{
			Model:          defaultClassifierModel,
			MaxTokens:      defaultClassifierTokens,
			TimeoutSeconds: defaultClassifierTime,
		},
		Pipeline: Pipeline{
			ClassificationThreshold: defaultThreshold,
			StrictThreshold:         true,
			DescriptionLimit:        defaultDescriptionLimit,
		},
		Workers: Workers{
			Count: defaultWorkerCount,
		},
		Priority: Priority{
			Bug: KeywordTiers{
				Default: "Medium",
				CriticalKeywords: []string{
					"data loss", "complete data loss", "all data", "unusable",
					"cannot access", "app won't start", "startup crash",
					"crashes every time", "crashes immediately", "crashes on startup",
				},
				HighKeywords: []string{
					"blank screen", "freeze", "notifications not working",
					"not responding", "crash", "crashes", "crashing",
					"slow", "performance", "lag", "frozen", "stuck",
				},
				MediumKeywords: []string{
					"permission", "security", "unexpected", "question",
					"concern", "explanation",
				},
				LowKeywords: []string{"cosmetic", "minor", "typo", "spelling", "text"},
			},
			FeatureRequest: KeywordTiers{
				Default: "Low",
				MediumKeywords: []string{
					"integration", "calendar", "recurring", "offline",
					"sync", "collaboration", "team",
				},
				LowKeywords: []string{
					"widget", "dark mode", "theme", "color", "shortcut",
					"voice", "siri", "simple",
				},
			},
			Praise: KeywordTiers{
				Default: "Low",
			},
			Complaint: KeywordTiers{
				Default: "Medium",
				HighKeywords: []string{
					"duplicate charge", "refund", "billing", "payment", "charge",
				},
				MediumKeywords: []string{
					"pricing", "price", "expensive", "cost", "subscription",
					"premium", "paid", "support", "response time",
					"customer service", "performance", "ui", "design", "slow",
				},
				LowKeywords: []string{"suggestion", "preference", "minor"},
			},
			Spam: KeywordTiers{
				Default: "Low",
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
