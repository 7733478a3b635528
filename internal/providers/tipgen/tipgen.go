package tipgen

import "context"

// Provider generates one short coaching tip for the practice dashboard.
type Provider interface {
	DailyTip(ctx context.Context) (string, error)
}

// FallbackTip is served when generation fails or no provider is configured.
const FallbackTip = "Pause briefly after key points and smile; your face projects calm, your pause projects confidence."
