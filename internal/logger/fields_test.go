package logger

import (
	"testing"

	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

func TestTenantFields(t *testing.T) {
	fields := TenantFields(tenant.MustNew("p1", "u1"))
	if len(fields) != 2 {
		t.Fatalf("len = %d", len(fields))
	}
	if fields[0].Key != "project_id" || fields[0].String != "p1" {
		t.Errorf("project field = %+v", fields[0])
	}
	if fields[1].Key != "user_id" || fields[1].String != "u1" {
		t.Errorf("user field = %+v", fields[1])
	}
}
