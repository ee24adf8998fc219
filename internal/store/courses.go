package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
)

// ListCourses returns the user's courses, newest first.
func (s *Store) ListCourses(ctx context.Context, userID string, limit int64) ([]Course, error) {
	cur, err := s.courses.Find(ctx, bson.M{"userId": userID}, listOptions(limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "list courses")
	}
	defer cur.Close(ctx)

	courses := []Course{}
	if err := cur.All(ctx, &courses); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorageFailed, "decode courses")
	}
	return courses, nil
}

// GetCourse loads one course owned by the user.
func (s *Store) GetCourse(ctx context.Context, userID string, id primitive.ObjectID) (Course, error) {
	var c Course
	err := s.courses.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&c)
	if err != nil {
		return Course{}, wrapFindErr(err, "course")
	}
	return c, nil
}

// FindCourseByName matches an existing course name exactly, ignoring case.
func (s *Store) FindCourseByName(ctx context.Context, userID, name string) (Course, error) {
	var c Course
	err := s.courses.FindOne(ctx, bson.M{"userId": userID, "name": exactNameFilter(name)}).Decode(&c)
	if err != nil {
		return Course{}, wrapFindErr(err, "course")
	}
	return c, nil
}

// DefaultCourseIcon marks courses created without an explicit icon.
const DefaultCourseIcon = "📚"

// CreateCourse inserts a course and returns it with its assigned id.
func (s *Store) CreateCourse(ctx context.Context, c Course) (Course, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Icon == "" {
		c.Icon = DefaultCourseIcon
	}

	if _, err := s.courses.InsertOne(ctx, c); err != nil {
		return Course{}, apperrors.Wrap(err, apperrors.CodeStorageFailed, "create course")
	}
	return c, nil
}

// UpdateCourse applies name, description, and icon changes to the user's
// course.
func (s *Store) UpdateCourse(ctx context.Context, userID string, id primitive.ObjectID, name, description, icon string) (Course, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if name != "" {
		set["name"] = name
	}
	if description != "" {
		set["description"] = description
	}
	if icon != "" {
		set["icon"] = icon
	}

	res := s.courses.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": set},
		findAndReturnUpdated())

	var c Course
	if err := res.Decode(&c); err != nil {
		return Course{}, wrapFindErr(err, "course")
	}
	return c, nil
}

// DeleteCourse removes the course and all lectures under it.
func (s *Store) DeleteCourse(ctx context.Context, userID string, id primitive.ObjectID) error {
	res, err := s.courses.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageFailed, "delete course")
	}
	if res.DeletedCount == 0 {
		return apperrors.New(apperrors.CodeNotFound, "course not found")
	}

	if _, err := s.lectures.DeleteMany(ctx, bson.M{"userId": userID, "courseId": id}); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageFailed, "delete course lectures")
	}
	return nil
}
