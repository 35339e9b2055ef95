// Package storage is the persistence layer: nine named collections inside
// one transactional embedded environment, the folder-centric mutation
// logic that keeps folder membership and entity records consistent, the
// in-memory state derived from the config collection, and the streaming
// export/import used for cross-instance migration.
//
// Callers receive decoded copies of stored entities and persist changes
// through explicit write methods; there is no shared mutable reference
// back into storage. Multi-record mutations run inside one transaction
// and either fully apply or visibly fail.
package storage
