package config

import (
	"os"

	"github.com/kamilpajak/diagnosa/internal/narrative"
	"go.uber.org/zap"
)

// BuildChain creates the narrative chain from the configured models.
// Models without an API key are skipped with a log line; a chain of length
// zero means explanations are unavailable.
func (c *Config) BuildChain(logger *zap.Logger) *narrative.Chain {
	var links []narrative.Link
	for _, m := range c.Narrative.Models {
		p, err := narrative.ParseProvider(m.Provider)
		if err != nil {
			logger.Warn("skipping narrative model", zap.String("provider", m.Provider), zap.Error(err))
			continue
		}
		model, err := narrative.NewModel(p, m.APIKey, m.Model)
		if err != nil {
			logger.Debug("skipping narrative model", zap.String("provider", m.Provider), zap.Error(err))
			continue
		}
		links = append(links, narrative.Link{
			Model:   model,
			Timeout: m.GetTimeout(),
			Limiter: narrative.NewHourlyLimiter(m.HourlyLimit),
		})
	}
	return narrative.NewChain(links...).WithLogger(logger)
}

// OnlyProvider keeps the models of one provider, for CLI --provider. When
// none is configured a default entry for p is added.
func (c *Config) OnlyProvider(p narrative.Provider) {
	kept := c.Narrative.Models[:0]
	for _, m := range c.Narrative.Models {
		if parsed, err := narrative.ParseProvider(m.Provider); err == nil && parsed == p {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, ModelConfig{Provider: string(p), APIKey: os.Getenv(apiKeyEnv[p]), Timeout: "30s"})
	}
	c.Narrative.Models = kept
}
