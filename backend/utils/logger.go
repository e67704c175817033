package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the application logger. Production emits JSON, everything else
// gets the colored console encoder.
func InitLogger(production bool) (*zap.SugaredLogger, error) {
	l, err := loggerConfig(production).Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func loggerConfig(production bool) zap.Config {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.InitialFields = map[string]interface{}{"app": "learning-platform"}
	return cfg
}
