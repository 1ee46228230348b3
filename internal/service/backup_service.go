package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"attendance/internal/docstore"
	"attendance/internal/ids"
	"attendance/internal/repository"
)

// SnapshotWriter stores one serialized collection under a key.
type SnapshotWriter interface {
	PutSnapshot(ctx context.Context, key string, data []byte) error
}

type BackupService struct {
	store  *docstore.Store
	writer SnapshotWriter
	clock  quartz.Clock
	log    zerolog.Logger
}

func NewBackupService(store *docstore.Store, writer SnapshotWriter, clock quartz.Clock, log zerolog.Logger) *BackupService {
	return &BackupService{store: store, writer: writer, clock: clock, log: log}
}

type BackupResult struct {
	RunID string
	Keys  []string
}

// Run snapshots every collection under YYYY/MM/DD/<run id>/<collection>.json.
func (s *BackupService) Run(ctx context.Context) (BackupResult, error) {
	runID := ids.New()
	prefix := path.Join(s.clock.Now().UTC().Format("2006/01/02"), runID)

	result := BackupResult{RunID: runID}
	for _, collection := range repository.Collections {
		docs := s.store.ReadAll(ctx, collection)
		if docs == nil {
			docs = []docstore.Document{}
		}
		data, err := json.Marshal(docs)
		if err != nil {
			return result, fmt.Errorf("encode %s: %w", collection, err)
		}

		key := path.Join(prefix, collection+".json")
		if err := s.writer.PutSnapshot(ctx, key, data); err != nil {
			return result, err
		}
		result.Keys = append(result.Keys, key)
		s.log.Debug().Str("key", key).Int("documents", len(docs)).Msg("collection snapshot stored")
	}

	s.log.Info().Str("run_id", runID).Int("collections", len(result.Keys)).Msg("backup finished")
	return result, nil
}
