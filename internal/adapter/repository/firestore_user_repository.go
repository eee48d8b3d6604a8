package repository

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"sellnext/internal/domain/entity"
	"sellnext/internal/domain/repository"
	"sellnext/pkg/errors"
)

const (
	usersCollection      = "users"
	userEmailsCollection = "userEmails"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

// Create reserves the e-mail in a lookup collection inside the same
// transaction so two signups with one address cannot both succeed.
func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	emailRef := r.client.Collection(userEmailsCollection).Doc(strings.ToLower(user.Email))
	userRef := r.client.Collection(usersCollection).Doc(user.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(emailRef); err == nil {
			return errors.Conflict("User already exists with this email")
		} else if !isNotFound(err) {
			return err
		}

		if err := tx.Create(emailRef, map[string]interface{}{"userId": user.ID}); err != nil {
			return err
		}
		return tx.Create(userRef, user)
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		if isAlreadyExists(err) {
			return errors.Conflict("User already exists with this email")
		}
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	iter := r.client.Collection(usersCollection).Where("email", "==", strings.ToLower(email)).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("User", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query user by email", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &user, nil
}

// Update writes the mutable profile fields. Email and password hash are not
// touched.
func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Update(ctx, []firestore.Update{
		{Path: "fullName", Value: user.FullName},
		{Path: "phone", Value: user.Phone},
		{Path: "location", Value: user.Location},
		{Path: "avatarURL", Value: user.AvatarURL},
		{Path: "bio", Value: user.Bio},
		{Path: "updatedAt", Value: user.UpdatedAt},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to update user", err)
	}
	return nil
}
