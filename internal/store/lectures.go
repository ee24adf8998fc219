package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

// LectureUpdate carries the mutable lecture fields. Nil pointers leave the
// stored value untouched.
type LectureUpdate struct {
	Title     *string
	Content   *string
	Status    *string
	KeyPoints []string
}

// ListLectures returns the user's lectures, optionally filtered by course,
// newest first.
func (s *Store) ListLectures(ctx context.Context, userID string, courseID *primitive.ObjectID, limit int64) ([]Lecture, error) {
	filter := bson.M{"userId": userID}
	if courseID != nil {
		filter["courseId"] = *courseID
	}

	cur, err := s.lectures.Find(ctx, filter, listOptions(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "list lectures")
	}
	defer cur.Close(ctx)

	lectures := []Lecture{}
	if err := cur.All(ctx, &lectures); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "decode lectures")
	}
	return lectures, nil
}

// GetLecture loads one lecture owned by the user.
func (s *Store) GetLecture(ctx context.Context, userID string, id primitive.ObjectID) (Lecture, error) {
	var l Lecture
	err := s.lectures.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&l)
	if err != nil {
		return Lecture{}, wrapFindErr(err, "lecture")
	}
	return l, nil
}

// CreateLecture inserts a lecture and returns it with its assigned id.
func (s *Store) CreateLecture(ctx context.Context, l Lecture) (Lecture, error) {
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	if l.Status == "" {
		l.Status = StatusTranscribed
	}
	l.CreatedAt = now
	l.UpdatedAt = now

	if _, err := s.lectures.InsertOne(ctx, l); err != nil {
		return Lecture{}, apperrors.Wrap(err, apperrors.CodeStorageFailed, "create lecture")
	}
	return l, nil
}

// UpdateLecture applies the given changes to the user's lecture.
func (s *Store) UpdateLecture(ctx context.Context, userID string, id primitive.ObjectID, upd LectureUpdate) (Lecture, error) {
	set := lectureUpdateDoc(upd)

	res := s.lectures.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": set},
		findAndReturnUpdated())

	var l Lecture
	if err := res.Decode(&l); err != nil {
		return Lecture{}, wrapFindErr(err, "lecture")
	}
	return l, nil
}

func lectureUpdateDoc(upd LectureUpdate) bson.M {
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
	if upd.KeyPoints != nil {
		set["keyPoints"] = upd.KeyPoints
	}
	return set
}

// DeleteLecture removes the user's lecture.
func (s *Store) DeleteLecture(ctx context.Context, userID string, id primitive.ObjectID) error {
	res, err := s.lectures.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageFailed, "delete lecture")
	}
	if res.DeletedCount == 0 {
		return apperrors.New(apperrors.CodeNotFound, "lecture not found")
	}
	return nil
}
