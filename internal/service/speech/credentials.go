package speech

import (
	"errors"
	"strings"

	speechmodel "github.com/zhouzirui/aura/backend/internal/model/speech"
)

// ErrNotConfigured 表示缺少火山引擎语音凭证。
var ErrNotConfigured = errors.New("speech credentials are not configured")

// credentials 返回 AppID 与 AccessToken，APIKey 作为旧配置的兜底。
func credentials(cfg *speechmodel.SpeechConfig) (appID, token string, err error) {
	if cfg == nil {
		return "", "", ErrNotConfigured
	}

	appID = strings.TrimSpace(cfg.AppID)
	token = strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		token = strings.TrimSpace(cfg.APIKey)
	}
	if appID == "" || token == "" {
		return "", "", ErrNotConfigured
	}
	return appID, token, nil
}
