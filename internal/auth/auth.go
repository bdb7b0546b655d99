package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"catalog-admin/internal/models"
)

const sessionKey = "admin_email"

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the row-store capability for admin accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
}

// Service is the session gate: it verifies credentials and decides
// whether admin screens are reachable.
type Service struct {
	users UserStore
	log   *logrus.Entry
}

func NewService(users UserStore) *Service {
	return &Service{
		users: users,
		log:   logrus.WithField("component", "auth"),
	}
}

// SignIn verifies the email/password pair against the stored hash.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.AdminUser, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin seeds the configured admin account on startup when it does
// not exist yet. A blank email disables seeding.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	if err := s.users.Create(ctx, &models.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}

	s.log.WithField("email", email).Info("seeded admin account")
	return nil
}

// StoreIdentity records the signed-in identity in the cookie session.
func StoreIdentity(c *gin.Context, email string) error {
	sess := sessions.Default(c)
	sess.Set(sessionKey, email)
	return sess.Save()
}

// ClearIdentity signs the current session out.
func ClearIdentity(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	return sess.Save()
}

// CurrentIdentity returns the signed-in email, or "" when nobody is.
func CurrentIdentity(c *gin.Context) string {
	if v, ok := sessions.Default(c).Get(sessionKey).(string); ok {
		return v
	}
	return ""
}

// RequireAuth rejects requests without a signed-in identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// MongoUserStore backs UserStore with the admin_users collection.
type MongoUserStore struct {
	collection *mongo.Collection
}

func NewMongoUserStore(collection *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{collection: collection}
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user models.AdminUser
	err := s.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("admin user not found")
		}
		return nil, errors.Wrap(err, "find admin user")
	}
	return &user, nil
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.AdminUser) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()

	_, err := s.collection.InsertOne(ctx, user)
	return errors.Wrap(err, "insert admin user")
}
