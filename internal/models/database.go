package models

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store.
// Media documents form the backlog collection, Pick documents the vote-order collection.
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Media operations

// InsertMedia persists a new record and assigns its ID
func (db *Database) InsertMedia(media *Media) error {
	if media.ID != 0 {
		return fmt.Errorf("%w: media %d is already persisted", ErrValidation, media.ID)
	}
	media.CreatedAt = time.Now()
	media.UpdatedAt = media.CreatedAt
	return db.store.Insert(bolthold.NextSequence(), media)
}

// UpdateMedia replaces an existing record. It never inserts.
func (db *Database) UpdateMedia(media *Media) error {
	if media.ID == 0 {
		return fmt.Errorf("%w: media has no id", ErrValidation)
	}
	media.UpdatedAt = time.Now()
	if err := db.store.Update(media.ID, media); err != nil {
		return translate(err, media.ID)
	}
	return nil
}

// GetMediaByID retrieves a media item by ID
func (db *Database) GetMediaByID(id uint64) (*Media, error) {
	var media Media
	if err := db.store.Get(id, &media); err != nil {
		return nil, translate(err, id)
	}
	return &media, nil
}

// FindMedias retrieves media items in insertion order, optionally restricted to some types
func (db *Database) FindMedias(types ...MediaType) ([]*Media, error) {
	var query *bolthold.Query
	if len(types) > 0 {
		values := make([]interface{}, len(types))
		for i, t := range types {
			values[i] = t
		}
		query = bolthold.Where("Type").In(values...)
	}

	var medias []*Media
	if err := db.store.Find(&medias, query); err != nil {
		return nil, fmt.Errorf("failed to query medias: %w", err)
	}

	slices.SortFunc(medias, func(a, b *Media) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return medias, nil
}

// Pick operations

// CommitPick stores the ritual outcome and schedules the winner in one transaction
func (db *Database) CommitPick(pick *Pick, scheduledOn Date) error {
	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var media Media
		if err := db.store.TxGet(tx, pick.MediaID, &media); err != nil {
			return translate(err, pick.MediaID)
		}

		media.ScheduledOn = &scheduledOn
		media.UpdatedAt = time.Now()
		if err := db.store.TxUpdate(tx, media.ID, &media); err != nil {
			return translate(err, media.ID)
		}

		if pick.DecidedAt.IsZero() {
			pick.DecidedAt = time.Now()
		}
		if err := db.store.TxInsert(tx, bolthold.NextSequence(), pick); err != nil {
			return fmt.Errorf("failed to insert pick: %w", err)
		}
		return nil
	})
}

// GetPicks retrieves past ritual outcomes, most recent first
func (db *Database) GetPicks() ([]*Pick, error) {
	var picks []*Pick
	if err := db.store.Find(&picks, nil); err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	slices.SortFunc(picks, func(a, b *Pick) int {
		return b.DecidedAt.Compare(a.DecidedAt)
	})
	return picks, nil
}

func translate(err error, id uint64) error {
	if errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return err
}
