package dialogue

import "go.uber.org/zap"

const (
	defaultIntentThreshold       = 0.7
	defaultConfirmationThreshold = 0.8
	defaultShortResponseLength   = 50
	defaultShortResponseLimit    = 3
)

// Config holds the tunable thresholds of the dialogue components
type Config struct {
	IntentThreshold       float64 `mapstructure:"intent_threshold"`
	ConfirmationThreshold float64 `mapstructure:"confirmation_threshold"`
	ShortResponseLength   int     `mapstructure:"short_response_length"`
	ShortResponseLimit    int     `mapstructure:"short_response_limit"`
}

// DefaultConfig returns the stock thresholds
func DefaultConfig() Config {
	return Config{
		IntentThreshold:       defaultIntentThreshold,
		ConfirmationThreshold: defaultConfirmationThreshold,
		ShortResponseLength:   defaultShortResponseLength,
		ShortResponseLimit:    defaultShortResponseLimit,
	}
}

func (c Config) withDefaults(logger *zap.Logger) Config {
	if c.IntentThreshold <= 0 {
		c.IntentThreshold = defaultIntentThreshold
		logger.Info("Using default intent threshold", zap.Float64("intentThreshold", c.IntentThreshold))
	}
	if c.ConfirmationThreshold <= 0 {
		c.ConfirmationThreshold = defaultConfirmationThreshold
		logger.Info("Using default confirmation threshold", zap.Float64("confirmationThreshold", c.ConfirmationThreshold))
	}
	if c.ShortResponseLength <= 0 {
		c.ShortResponseLength = defaultShortResponseLength
		logger.Info("Using default short response length", zap.Int("shortResponseLength", c.ShortResponseLength))
	}
	if c.ShortResponseLimit <= 0 {
		c.ShortResponseLimit = defaultShortResponseLimit
		logger.Info("Using default short response limit", zap.Int("shortResponseLimit", c.ShortResponseLimit))
	}
	return c
}
