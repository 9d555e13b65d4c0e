package record

import (
	"strings"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/domain/tenant"
)

// Every key of one tenant carries the tenant tag in braces, so in cluster
// mode they hash to one slot and MULTI/EXEC stays valid.
var (
	// IndexName is the single FT index over all records.
	IndexName = domain.KeyPrefix + "records:idx"
	// RecordPrefix is the hash key prefix covered by IndexName.
	RecordPrefix = domain.KeyPrefix + "rec:"
)

func slot(t tenant.Key) string { return "{" + t.Tag() + "}" }

// recordKey: lograg:rec:{tag}:<id>
func recordKey(t tenant.Key, id string) string {
	return RecordPrefix + slot(t) + ":" + id
}

// documentKey holds the SET of record ids of one document.
func documentKey(t tenant.Key, documentID string) string {
	return domain.KeyPrefix + "doc:" + slot(t) + ":" + documentID
}

// recordsKey is the tenant ZSET of record ids scored by created_at millis.
func recordsKey(t tenant.Key) string {
	return domain.KeyPrefix + "tenant:" + slot(t) + ":records"
}

// documentsKey is the tenant SET of document ids.
func documentsKey(t tenant.Key) string {
	return domain.KeyPrefix + "tenant:" + slot(t) + ":docs"
}

func recordKeys(t tenant.Key, ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(t, id)
	}
	return keys
}

func idFromKey(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}
