package storage

import (
	"fmt"
	"io"

	"github.com/cuemby/loadstore/pkg/codec"
	"github.com/cuemby/loadstore/pkg/types"
)

// ImportReport summarizes one import run. Complete is false only when a
// record actually failed to decode, resolve, or write; refused conflicts
// count as failed writes.
type ImportReport struct {
	// Records is the number of triples read from the stream.
	Records int

	// Written counts records stored as-is under a new key.
	Written int

	// Merged counts folder records additively merged into an existing
	// folder.
	Merged int

	// Conflicts lists collection/key pairs that were refused because a
	// non-folder record already existed at the key.
	Conflicts []string

	// Failures counts records that could not be decoded, resolved, or
	// written.
	Failures int

	Complete bool
}

// Export streams the named real folders, virtual folders, and job groups
// as (collection, key, bytes) triples. Each real folder is exported in
// its own read transaction and flushed before the next, so one folder's
// inconsistency cannot taint another's export. Referenced records that no
// longer exist are logged and skipped. Virtual folders and job groups go
// out as single untransacted triples; they only reference data the real
// folders already carry.
func (s *Store) Export(realFolders, virtualFolders, jobGroups []string, w io.Writer) error {
	release, err := s.acquireOpen()
	if err != nil {
		return err
	}
	defer release()

	cw := codec.NewWriter(w)
	for _, name := range realFolders {
		if err := s.exportFolder(cw, name); err != nil {
			return err
		}
		if err := cw.Flush(); err != nil {
			return storageErr("flush export stream", err)
		}
	}

	for _, name := range virtualFolders {
		data, err := s.env.Get(nil, CollectionVirtualFolder, name)
		if err != nil {
			return err
		}
		if data == nil {
			s.logger.Warn().Str("virtual_folder", name).Msg("virtual folder missing at export, skipping")
			continue
		}
		if err := writeTriple(cw, CollectionVirtualFolder, name, data); err != nil {
			return err
		}
	}

	for _, name := range jobGroups {
		data, err := s.env.Get(nil, CollectionJobGroup, name)
		if err != nil {
			return err
		}
		if data == nil {
			s.logger.Warn().Str("job_group", name).Msg("job group missing at export, skipping")
			continue
		}
		if err := writeTriple(cw, CollectionJobGroup, name, data); err != nil {
			return err
		}
	}

	if err := cw.Flush(); err != nil {
		return storageErr("flush export stream", err)
	}
	return nil
}

// exportFolder emits one real folder and everything it references inside
// a single read transaction.
func (s *Store) exportFolder(cw *codec.Writer, name string) error {
	txn, err := s.env.Begin(false)
	if err != nil {
		return err
	}
	defer s.abort(txn)

	data, err := s.env.Get(txn, CollectionFolder, name)
	if err != nil {
		return err
	}
	if data == nil {
		s.logger.Warn().Str("folder", name).Msg("folder missing at export, skipping")
		return nil
	}
	if err := writeTriple(cw, CollectionFolder, name, data); err != nil {
		return err
	}

	folder, err := types.DecodeJobFolder(data)
	if err != nil {
		s.logger.Warn().Str("folder", name).Err(err).Msg("folder record is unreadable, exporting it bare")
		return nil
	}

	for _, jobID := range folder.JobIDs {
		if err := s.exportRecord(cw, txn, CollectionJob, jobID, jobID); err != nil {
			return err
		}
	}
	for _, optID := range folder.OptimizingJobIDs {
		if err := s.exportRecord(cw, txn, CollectionOptimizingJob, optID, optID); err != nil {
			return err
		}
	}
	for _, fileName := range folder.FileNames {
		key := fileKey(name, fileName)
		if err := s.exportRecord(cw, txn, CollectionFile, key, fileName); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) exportRecord(cw *codec.Writer, txn *Txn, collection, key, display string) error {
	data, err := s.env.Get(txn, collection, key)
	if err != nil {
		return err
	}
	if data == nil {
		s.logger.Warn().
			Str("collection", collection).
			Str("record", display).
			Msg("referenced record missing at export, skipping")
		return nil
	}
	return writeTriple(cw, collection, key, data)
}

func writeTriple(cw *codec.Writer, collection, key string, data []byte) error {
	triple := codec.Sequence(
		codec.String(collection),
		codec.String(key),
		codec.Bytes(data),
	)
	if err := cw.WriteElement(triple); err != nil {
		return storageErr("write export stream", err)
	}
	return nil
}

// Import reads triples until the stream is exhausted. New keys are
// written as-is; an existing folder key is additively merged with the
// incoming one; any other existing key is refused and reported as a
// conflict. Only stream-level failures abort the import; per-record
// problems are counted and the loop continues.
func (s *Store) Import(r io.Reader) (*ImportReport, error) {
	release, err := s.acquireWritable()
	if err != nil {
		return nil, err
	}
	defer release()

	report := &ImportReport{Complete: true}
	cr := codec.NewReader(r)
	for {
		element, err := cr.ReadElement()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, storageErr("read import stream", err)
		}
		report.Records++

		collection, key, data, err := readTriple(element)
		if err != nil {
			s.logger.Warn().Err(err).Msg("malformed import record, skipping")
			report.Failures++
			report.Complete = false
			continue
		}

		if !isKnownCollection(collection) {
			s.logger.Warn().Str("collection", collection).Str("key", key).
				Msg("import record targets an unknown collection, skipping")
			report.Failures++
			report.Complete = false
			continue
		}

		existing, err := s.env.Get(nil, collection, key)
		if err != nil {
			return report, err
		}

		switch {
		case existing == nil:
			if err := s.env.Put(nil, collection, key, data); err != nil {
				s.logger.Warn().Err(err).Str("collection", collection).Str("key", key).
					Msg("import write failed")
				report.Failures++
				report.Complete = false
				continue
			}
			report.Written++
			if collection == CollectionConfig {
				s.configMu.Lock()
				s.configCache[key] = string(data)
				s.configMu.Unlock()
			}

		case collection == CollectionFolder:
			if err := s.mergeImportedFolder(key, existing, data); err != nil {
				s.logger.Warn().Err(err).Str("folder", key).Msg("folder merge failed")
				report.Failures++
				report.Complete = false
				continue
			}
			report.Merged++

		default:
			s.logger.Warn().Str("collection", collection).Str("key", key).
				Msg("import refuses to overwrite existing record")
			report.Conflicts = append(report.Conflicts, collection+"/"+key)
			report.Complete = false
		}
	}
	return report, nil
}

// mergeImportedFolder unions the incoming folder's membership lists into
// the existing record. The union of a set with itself is the set, so
// re-importing the same stream is idempotent.
func (s *Store) mergeImportedFolder(key string, existingData, incomingData []byte) error {
	existing, err := types.DecodeJobFolder(existingData)
	if err != nil {
		return err
	}
	incoming, err := types.DecodeJobFolder(incomingData)
	if err != nil {
		return err
	}

	for _, id := range incoming.JobIDs {
		existing.AddJobID(id)
	}
	for _, id := range incoming.OptimizingJobIDs {
		existing.AddOptimizingJobID(id)
	}
	for _, name := range incoming.ChildNames {
		existing.AddChildName(name)
	}
	for _, name := range incoming.FileNames {
		existing.AddFileName(name)
	}

	return s.env.Put(nil, CollectionFolder, key, existing.Encode())
}

func readTriple(e codec.Element) (collection, key string, data []byte, err error) {
	elements, err := e.AsSequence()
	if err != nil {
		return "", "", nil, err
	}
	if len(elements) != 3 {
		return "", "", nil, fmt.Errorf("expected 3-element record, got %d", len(elements))
	}
	if collection, err = elements[0].AsString(); err != nil {
		return "", "", nil, err
	}
	if key, err = elements[1].AsString(); err != nil {
		return "", "", nil, err
	}
	if data, err = elements[2].AsBytes(); err != nil {
		return "", "", nil, err
	}
	return collection, key, data, nil
}
