package config

import (
	"encoding/json"
	"strconv"
	"strings"

	"codeberg.org/codeagent/server/internal/logger"
)

// keys the editor extension forwards
const (
	settingAPIKey      = "codeAgent.llm.apiKey"
	settingBaseURL     = "codeAgent.llm.baseUrl"
	settingModel       = "codeAgent.llm.model"
	settingTemperature = "codeAgent.llm.temperature"
)

// overlays non-empty editor settings onto cfg. A malformed blob is logged and ignored
// so the server still starts from its other sources.
func applyEditorSettings(cfg *Config, blob string) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return
	}

	var settings map[string]any
	if err := json.Unmarshal([]byte(blob), &settings); err != nil {
		logger.Warn("ignoring malformed editor settings", "error", err)
		return
	}

	if v := settingString(settings, settingAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := settingString(settings, settingBaseURL); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := settingString(settings, settingModel); v != "" {
		cfg.LLM.Model = v
	}

	switch v := settings[settingTemperature].(type) {
	case float64:
		cfg.LLM.Temperature = v
	case string:
		if t, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			cfg.LLM.Temperature = t
		} else if v != "" {
			logger.Warn("ignoring invalid editor temperature", "value", v)
		}
	}

	logger.Debug("applied editor settings",
		"base_url", cfg.LLM.BaseURL,
		"model", cfg.LLM.Model,
		"temperature", cfg.LLM.Temperature,
		"api_key", logger.MaskKey(cfg.LLM.APIKey),
	)
}

func settingString(settings map[string]any, key string) string {
	s, _ := settings[key].(string)
	return strings.TrimSpace(s)
}
