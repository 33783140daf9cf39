package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength defines the maximum allowed length for webhook URLs.
const maxURLLength = 2048

// ValidateWebhookURL validates the format of a trigger URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a host.
// Private addresses are allowed: trigger receivers commonly live on the local network.
func ValidateWebhookURL(field, rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: field, Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("parse URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: field, Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: field, Message: "URL must have a valid host"}
	}

	return nil
}
