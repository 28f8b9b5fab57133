package config

import "strings"

func (c *Config) normalize() error {
	var err error

	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)

	c.Classifier.APIKey = strings.TrimSpace(c.Classifier.APIKey)
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.MaxTokens <= 0 {
		c.Classifier.MaxTokens = defaultClassifierTokens
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTime
	}

	if c.Pipeline.DescriptionLimit <= 0 {
		c.Pipeline.DescriptionLimit = defaultDescriptionLimit
	}
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	normalizeTiers(&c.Priority.Bug)
	normalizeTiers(&c.Priority.FeatureRequest)
	normalizeTiers(&c.Priority.Praise)
	normalizeTiers(&c.Priority.Complaint)
	normalizeTiers(&c.Priority.Spam)

	return nil
}

func normalizeTiers(tiers *KeywordTiers) {
	tiers.Default = strings.TrimSpace(tiers.Default)
	tiers.CriticalKeywords = normalizeKeywords(tiers.CriticalKeywords)
	tiers.HighKeywords = normalizeKeywords(tiers.HighKeywords)
	tiers.MediumKeywords = normalizeKeywords(tiers.MediumKeywords)
	tiers.LowKeywords = normalizeKeywords(tiers.LowKeywords)
}

func normalizeKeywords(keywords []string) []string {
	out := keywords[:0]
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		out = append(out, kw)
	}
	return out
}
