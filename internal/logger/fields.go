package logger

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// TenantFields returns structured fields identifying a tenant. Raw log text
// and questions never go into fields.
func TenantFields(t tenant.Key) []zap.Field {
	return []zap.Field{
		zap.String("project_id", t.ProjectID()),
		zap.String("user_id", t.UserID()),
	}
}
