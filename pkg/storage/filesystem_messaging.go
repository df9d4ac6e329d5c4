package storage

import (
	"github.com/felixgeelhaar/pulse/pkg/domain/messaging"
)

// SaveMessagingConfig writes messaging.yaml.
func (r *FilesystemRepository) SaveMessagingConfig(config *messaging.MessagingConfig) error {
	return r.saveYAML(MessagingFile, config)
}

// LoadMessagingConfig reads messaging.yaml. A missing file yields an empty config.
func (r *FilesystemRepository) LoadMessagingConfig() (*messaging.MessagingConfig, error) {
	var config messaging.MessagingConfig
	if _, err := r.loadYAML(MessagingFile, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveWebhookConfig writes webhooks.yaml.
func (r *FilesystemRepository) SaveWebhookConfig(config *messaging.WebhookConfig) error {
	return r.saveYAML(WebhookFile, config)
}

// LoadWebhookConfig reads webhooks.yaml. A missing file yields an empty config.
func (r *FilesystemRepository) LoadWebhookConfig() (*messaging.WebhookConfig, error) {
	var config messaging.WebhookConfig
	if _, err := r.loadYAML(WebhookFile, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// DeadLetterPath returns the location of deadletters.jsonl.
func (r *FilesystemRepository) DeadLetterPath() (string, error) {
	return r.ResolvePath(DeadLetterFile)
}
