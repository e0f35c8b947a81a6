package checkout

import "time"

// Setting keys.
const (
	SettingGatewaySecretKey = "gateway_secret_key"
	SettingGatewayAPIURL    = "gateway_api_url"
	SettingAIProvider       = "ai_provider"
	SettingAIModel          = "ai_model"
	SettingAIAPIKey         = "ai_api_key"
	SettingAIBaseURL        = "ai_base_url"
	SettingEmailFrom        = "email_from"
	SettingEmailFromName    = "email_from_name"
)

// SecretSettings are stored encrypted and masked on read.
var SecretSettings = map[string]bool{
	SettingGatewaySecretKey: true,
	SettingAIAPIKey:         true,
}

// KnownSettings lists every key accepted by the settings API.
var KnownSettings = []string{
	SettingGatewaySecretKey,
	SettingGatewayAPIURL,
	SettingAIProvider,
	SettingAIModel,
	SettingAIAPIKey,
	SettingAIBaseURL,
	SettingEmailFrom,
	SettingEmailFromName,
}

// Setting is one stored key/value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updatedAt"`
}
