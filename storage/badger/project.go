package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/storage"
)

// CreateProject stores a new project and its owner index entry.
func (r *Repository) CreateProject(ctx context.Context, project *core.Project) error {
	if err := core.ValidateProject(project); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if project.ID == uuid.Nil {
			project.ID = core.NewID()
		}

		key := makeEntityKey(projectPrefix, project.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateID
		}

		project.CreatedAt = time.Now().UTC()
		project.UpdatedAt = project.CreatedAt

		value, err := storage.MarshalProject(project)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		ownerKey := makeScopeKey(projectOwnerPrefix, project.OwnerID, project.ID)
		if err := tx.Set(ownerKey, project.ID[:]); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetProject retrieves a project by ID.
func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*core.Project, error) {
	var project *core.Project

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeEntityKey(projectPrefix, id))
		if err != nil {
			return err
		}
		project, err = storage.UnmarshalProject(value)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjectsByOwner returns all projects for an owner, oldest first.
func (r *Repository) ListProjectsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*core.Project, error) {
	var projects []*core.Project

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectScopeIDs(tx, projectOwnerPrefix, ownerID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			value, err := readValue(tx, makeEntityKey(projectPrefix, id))
			if err != nil {
				return err
			}
			project, err := storage.UnmarshalProject(value)
			if err != nil {
				return err
			}
			projects = append(projects, project)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(projects, func(a, b *core.Project) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return projects, nil
}

// UpdateProject overwrites an existing project.
func (r *Repository) UpdateProject(ctx context.Context, project *core.Project) error {
	if err := core.ValidateProject(project); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(projectPrefix, project.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		project.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalProject(project)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteProject removes a project and everything inside it in one
// transaction. References go first, then messages, conversations,
// documents, and finally the project row, so no child can outlive its
// parent.
func (r *Repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeEntityKey(projectPrefix, id))
		if err != nil {
			return err
		}
		project, err := storage.UnmarshalProject(value)
		if err != nil {
			return err
		}

		convIDs, err := collectScopeIDs(tx, conversationProjectPrefix, id)
		if err != nil {
			return err
		}
		for _, convID := range convIDs {
			if err := deleteConversationCascade(tx, convID); err != nil {
				return err
			}
		}

		docIDs, err := collectScopeIDs(tx, documentProjectPrefix, id)
		if err != nil {
			return err
		}
		for _, docID := range docIDs {
			if err := tx.Delete(makeEntityKey(documentPrefix, docID)); err != nil {
				return err
			}
			if err := tx.Delete(makeScopeKey(documentProjectPrefix, id, docID)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeScopeKey(projectOwnerPrefix, project.OwnerID, id)); err != nil {
			return err
		}
		if err := tx.Delete(makeEntityKey(projectPrefix, id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// collectScopeIDs gathers the trailing UUIDs of every index key under
// prefix:scope. Keys are collected before any deletes so callers can
// safely delete while holding the same transaction.
func collectScopeIDs(tx *badger.Txn, prefix string, scope uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialScopeKey(prefix, scope)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		id, err := idFromIndexKey(iter.Item().Key())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
