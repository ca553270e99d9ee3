package storage

import (
	"bytes"
	"context"
)

// AuditArchive stores raw request/response payloads under a key prefix.
// It adapts ObjectStorage to the one-shot Put the protocol service wants.
type AuditArchive struct {
	store  ObjectStorage
	prefix string
}

// NewAuditArchive creates an AuditArchive over the given storage.
func NewAuditArchive(store ObjectStorage, prefix string) *AuditArchive {
	return &AuditArchive{store: store, prefix: prefix}
}

// Put uploads one payload.
func (a *AuditArchive) Put(ctx context.Context, key, contentType string, body []byte) error {
	full := key
	if a.prefix != "" {
		full = a.prefix + "/" + key
	}
	return a.store.Upload(ctx, full, bytes.NewReader(body), int64(len(body)), contentType)
}
