package driving

import (
	"context"

	"github.com/custodia-labs/docuchat/internal/core/domain"
)

// HealthService reports pipeline readiness.
type HealthService interface {
	Check(ctx context.Context) domain.HealthReport
}
