package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a stable UUID from key using go-hashid. Keys must carry a
// domain prefix so different record kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ElementUUID is the record id of the content element addressed by
// (pageKey, elementKey). Upserts rely on it to stay idempotent.
func ElementUUID(pageKey, elementKey string) uuid.UUID {
	return UUID("cms-inline:element:" + strings.TrimSpace(pageKey) + ":" + strings.TrimSpace(elementKey))
}

// CollectionUUID is the record id of an element collection stored on a page section.
func CollectionUUID(pageKey, sectionKey string) uuid.UUID {
	return UUID("cms-inline:collection:" + strings.TrimSpace(pageKey) + ":" + strings.TrimSpace(sectionKey))
}
