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

// CreateConversation stores a new conversation and its index entries.
func (r *Repository) CreateConversation(ctx context.Context, conversation *core.Conversation) error {
	if err := core.ValidateConversation(conversation); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if conversation.ID == uuid.Nil {
			conversation.ID = core.NewID()
		}

		key := makeEntityKey(conversationPrefix, conversation.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateID
		}

		conversation.CreatedAt = time.Now().UTC()
		conversation.UpdatedAt = conversation.CreatedAt

		value, err := storage.MarshalConversation(conversation)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		// Project-less conversations get no project index entry, so the
		// project cascade never touches them.
		if conversation.ProjectID != uuid.Nil {
			projectKey := makeScopeKey(conversationProjectPrefix, conversation.ProjectID, conversation.ID)
			if err := tx.Set(projectKey, conversation.ID[:]); err != nil {
				return err
			}
		}
		userKey := makeScopeKey(conversationUserPrefix, conversation.UserID, conversation.ID)
		if err := tx.Set(userKey, conversation.ID[:]); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetConversation retrieves a conversation by ID.
func (r *Repository) GetConversation(ctx context.Context, id uuid.UUID) (*core.Conversation, error) {
	var conversation *core.Conversation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeEntityKey(conversationPrefix, id))
		if err != nil {
			return err
		}
		conversation, err = storage.UnmarshalConversation(value)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversationsByProject returns all conversations in a project,
// oldest first.
func (r *Repository) ListConversationsByProject(ctx context.Context, projectID uuid.UUID) ([]*core.Conversation, error) {
	return r.listConversations(conversationProjectPrefix, projectID)
}

// ListConversationsByUser returns all conversations owned by a user,
// oldest first.
func (r *Repository) ListConversationsByUser(ctx context.Context, userID uuid.UUID) ([]*core.Conversation, error) {
	return r.listConversations(conversationUserPrefix, userID)
}

func (r *Repository) listConversations(prefix string, scope uuid.UUID) ([]*core.Conversation, error) {
	var conversations []*core.Conversation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectScopeIDs(tx, prefix, scope)
		if err != nil {
			return err
		}
		for _, id := range ids {
			value, err := readValue(tx, makeEntityKey(conversationPrefix, id))
			if err != nil {
				return err
			}
			conversation, err := storage.UnmarshalConversation(value)
			if err != nil {
				return err
			}
			conversations = append(conversations, conversation)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(conversations, func(a, b *core.Conversation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return conversations, nil
}

// UpdateConversation overwrites an existing conversation.
func (r *Repository) UpdateConversation(ctx context.Context, conversation *core.Conversation) error {
	if err := core.ValidateConversation(conversation); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(conversationPrefix, conversation.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		conversation.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalConversation(conversation)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteConversation removes a conversation with its messages and
// references in one transaction, children first.
func (r *Repository) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := exists(tx, makeEntityKey(conversationPrefix, id))
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		if err := deleteConversationCascade(tx, id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// deleteConversationCascade removes a conversation and everything under
// it without committing: references, then messages, then the
// conversation row and its indexes. Used by both DeleteConversation and
// the project cascade.
func deleteConversationCascade(tx *badger.Txn, id uuid.UUID) error {
	value, err := readValue(tx, makeEntityKey(conversationPrefix, id))
	if err != nil {
		return err
	}
	conversation, err := storage.UnmarshalConversation(value)
	if err != nil {
		return err
	}

	indexKeys, messageIDs, err := collectMessageIndex(tx, id)
	if err != nil {
		return err
	}
	for _, messageID := range messageIDs {
		refIDs, err := collectScopeIDs(tx, referenceMessagePrefix, messageID)
		if err != nil {
			return err
		}
		for _, refID := range refIDs {
			if err := tx.Delete(makeEntityKey(referencePrefix, refID)); err != nil {
				return err
			}
			if err := tx.Delete(makeScopeKey(referenceMessagePrefix, messageID, refID)); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeEntityKey(messagePrefix, messageID)); err != nil {
			return err
		}
	}
	for _, indexKey := range indexKeys {
		if err := tx.Delete(indexKey); err != nil {
			return err
		}
	}

	if conversation.ProjectID != uuid.Nil {
		if err := tx.Delete(makeScopeKey(conversationProjectPrefix, conversation.ProjectID, id)); err != nil {
			return err
		}
	}
	if err := tx.Delete(makeScopeKey(conversationUserPrefix, conversation.UserID, id)); err != nil {
		return err
	}
	return tx.Delete(makeEntityKey(conversationPrefix, id))
}

// CreateMessage stores a message and its references in one transaction.
func (r *Repository) CreateMessage(ctx context.Context, message *core.Message) error {
	if err := core.ValidateMessage(message); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if message.ID == uuid.Nil {
			message.ID = core.NewID()
		}
		if message.CreatedAt.IsZero() {
			message.CreatedAt = time.Now().UTC()
		}

		key := makeEntityKey(messagePrefix, message.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateID
		}

		value, err := storage.MarshalMessage(message)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		convKey := makeMessageConvKey(message.ConversationID, message.CreatedAt, message.ID)
		if err := tx.Set(convKey, message.ID[:]); err != nil {
			return err
		}

		for _, reference := range message.References {
			if reference.ID == uuid.Nil {
				reference.ID = core.NewID()
			}
			reference.MessageID = message.ID

			refValue, err := storage.MarshalReference(reference)
			if err != nil {
				return err
			}
			if err := tx.Set(makeEntityKey(referencePrefix, reference.ID), refValue); err != nil {
				return err
			}
			refKey := makeScopeKey(referenceMessagePrefix, message.ID, reference.ID)
			if err := tx.Set(refKey, reference.ID[:]); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
}

// CreateMessageReferences attaches references to an existing message in
// one transaction; either all of them are stored or none are.
func (r *Repository) CreateMessageReferences(ctx context.Context, messageID uuid.UUID, references []*core.DocumentReference) error {
	if len(references) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		found, err := exists(tx, makeEntityKey(messagePrefix, messageID))
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		for _, reference := range references {
			if reference.ID == uuid.Nil {
				reference.ID = core.NewID()
			}
			reference.MessageID = messageID

			value, err := storage.MarshalReference(reference)
			if err != nil {
				return err
			}
			if err := tx.Set(makeEntityKey(referencePrefix, reference.ID), value); err != nil {
				return err
			}
			refKey := makeScopeKey(referenceMessagePrefix, messageID, reference.ID)
			if err := tx.Set(refKey, reference.ID[:]); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
}

// GetMessage retrieves a message with its references loaded.
func (r *Repository) GetMessage(ctx context.Context, id uuid.UUID) (*core.Message, error) {
	var message *core.Message

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeEntityKey(messagePrefix, id))
		if err != nil {
			return err
		}
		message, err = storage.UnmarshalMessage(value)
		if err != nil {
			return err
		}
		message.References, err = loadReferences(tx, id)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return message, nil
}

// ListMessages returns a conversation's messages in chronological
// order with references loaded.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*core.Message, error) {
	var messages []*core.Message

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, ids, err := collectMessageIndex(tx, conversationID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			value, err := readValue(tx, makeEntityKey(messagePrefix, id))
			if err != nil {
				return err
			}
			message, err := storage.UnmarshalMessage(value)
			if err != nil {
				return err
			}
			message.References, err = loadReferences(tx, id)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CountMessages returns the number of messages in a conversation.
func (r *Repository) CountMessages(ctx context.Context, conversationID uuid.UUID) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialScopeKey(messageConvPrefix, conversationID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// collectMessageIndex gathers the index keys and message IDs of a
// conversation in chronological key order.
func collectMessageIndex(tx *badger.Txn, conversationID uuid.UUID) ([][]byte, []uuid.UUID, error) {
	var (
		keys [][]byte
		ids  []uuid.UUID
	)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialScopeKey(messageConvPrefix, conversationID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().KeyCopy(nil)
		id, err := idFromIndexKey(key)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		ids = append(ids, id)
	}
	return keys, ids, nil
}

// loadReferences reads every reference attached to a message.
func loadReferences(tx *badger.Txn, messageID uuid.UUID) ([]*core.DocumentReference, error) {
	refIDs, err := collectScopeIDs(tx, referenceMessagePrefix, messageID)
	if err != nil {
		return nil, err
	}

	var references []*core.DocumentReference
	for _, refID := range refIDs {
		value, err := readValue(tx, makeEntityKey(referencePrefix, refID))
		if err != nil {
			return nil, err
		}
		reference, err := storage.UnmarshalReference(value)
		if err != nil {
			return nil, err
		}
		references = append(references, reference)
	}
	return references, nil
}
