package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

// NoteUpdate carries the mutable note fields. Nil pointers leave the stored
// value untouched.
type NoteUpdate struct {
	Title   *string
	Content *string
	Status  *string
	Type    *string
	Tags    []string
}

// ListNotes returns the user's notes, newest first.
func (s *Store) ListNotes(ctx context.Context, userID string, limit int64) ([]Note, error) {
	cur, err := s.notes.Find(ctx, bson.M{"userId": userID}, listOptions(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "list notes")
	}
	defer cur.Close(ctx)

	notes := []Note{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "decode notes")
	}
	return notes, nil
}

// GetNote loads one note owned by the user.
func (s *Store) GetNote(ctx context.Context, userID string, id primitive.ObjectID) (Note, error) {
	var n Note
	err := s.notes.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&n)
	if err != nil {
		return Note{}, wrapFindErr(err, "note")
	}
	return n, nil
}

// CreateNote inserts a note and returns it with its assigned id.
func (s *Store) CreateNote(ctx context.Context, n Note) (Note, error) {
	now := time.Now().UTC()
	n.ID = primitive.NewObjectID()
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := s.notes.InsertOne(ctx, n); err != nil {
		return Note{}, apperrors.Wrap(err, apperrors.CodeStorageFailed, "create note")
	}
	return n, nil
}

// UpdateNote applies the given changes to the user's note.
func (s *Store) UpdateNote(ctx context.Context, userID string, id primitive.ObjectID, upd NoteUpdate) (Note, error) {
	set := noteUpdateDoc(upd)

	res := s.notes.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": set},
		findAndReturnUpdated())

	var n Note
	if err := res.Decode(&n); err != nil {
		return Note{}, wrapFindErr(err, "note")
	}
	return n, nil
}

func noteUpdateDoc(upd NoteUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Type != nil {
		set["type"] = *upd.Type
	}
	if upd.Tags != nil {
		set["tags"] = upd.Tags
	}
	return set
}

// DeleteNote removes the user's note.
func (s *Store) DeleteNote(ctx context.Context, userID string, id primitive.ObjectID) error {
	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageFailed, "delete note")
	}
	if res.DeletedCount == 0 {
		return apperrors.New(apperrors.CodeNotFound, "note not found")
	}
	return nil
}
