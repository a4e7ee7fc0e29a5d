package domain

import "strings"

// Provider identifies an LLM completion provider.
type Provider string

// Supported providers. ProviderGroq is the first supported provider and the
// last-resort fallback.
const (
	ProviderGroq     Provider = "groq"
	ProviderCerebras Provider = "cerebras"
)

// SupportedProviders lists providers in fallback preference order.
func SupportedProviders() []Provider {
	return []Provider{ProviderGroq, ProviderCerebras}
}

// ParseProvider normalises a provider name. Unknown or empty names return "".
func ParseProvider(s string) Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p.IsValid() {
		return p
	}
	return ""
}

// IsValid returns true if the provider is supported.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGroq, ProviderCerebras:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p Provider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p Provider) Description() string {
	switch p {
	case ProviderGroq:
		return "Groq (cloud)"
	case ProviderCerebras:
		return "Cerebras (cloud)"
	default:
		return "Unknown"
	}
}

// ResolveProvider selects the provider to use for a call.
//
// The requested provider is honoured when available. With no request the
// default is tried. Otherwise the first available supported provider wins,
// and with nothing available the first supported provider is returned so
// the call fails downstream with a clear error.
func ResolveProvider(requested, fallback Provider, available map[Provider]bool) Provider {
	selected := requested
	if selected == "" {
		selected = fallback
	}
	if selected == "" {
		selected = ProviderGroq
	}
	if available[selected] {
		return selected
	}
	for _, p := range SupportedProviders() {
		if available[p] {
			return p
		}
	}
	return ProviderGroq
}
