package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// OTPStore guarda códigos de login de un solo uso con TTL.
type OTPStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Delete(ctx context.Context, email string) error
	Consume(ctx context.Context, email, code string) (ok bool, found bool, err error)
}

type Mailer interface {
	Send(to, subject, body string) error
}

const (
	otpTTL   = 5 * time.Minute
	tokenTTL = 7 * 24 * time.Hour
)

var (
	ErrEmailTaken = errors.New("el email ya está registrado")
	ErrBadRole    = errors.New("rol no permitido en el registro")
	// Mismo mensaje para email inexistente y password incorrecta: no se
	// filtra cuál de los dos falló.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOTPExpired         = errors.New("el código no existe o expiró")
	ErrOTPMismatch        = errors.New("código incorrecto")
	ErrMailDelivery       = errors.New("no se pudo enviar el código por correo")
)

type AuthService struct {
	users  UserRepository
	otp    OTPStore
	mailer Mailer
	secret []byte

	now      func() time.Time
	makeCode func() string
}

func NewAuthService(users UserRepository, otp OTPStore, mailer Mailer, secret string) *AuthService {
	return &AuthService{
		users:  users,
		otp:    otp,
		mailer: mailer,
		secret: []byte(secret),
		now:    time.Now,
		makeCode: func() string {
			return fmt.Sprintf("%06d", rand.IntN(900000)+100000)
		},
	}
}

// Register crea un customer o vendor. Los admin se cargan por fuera.
func (a *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleCustomer
	}
	if role != model.RoleCustomer && role != model.RoleVendor {
		return nil, ErrBadRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     role,
		// Los vendors arrancan pendientes de aprobación de un admin.
		Approved: role == model.RoleCustomer,
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login valida la password contra la única colección de usuarios (el rol
// es un campo discriminado, no tres colecciones). Admin y vendor reciben
// token directo; customer pasa por el código de un solo uso.
func (a *AuthService) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Role == model.RoleAdmin || user.Role == model.RoleVendor {
		token, err := a.mintToken(user)
		if err != nil {
			return nil, err
		}
		return &dto.AuthResponse{
			Message: "Login successful",
			Token:   token,
			Role:    user.Role,
			User:    user,
		}, nil
	}

	// Customer: un código pendiente por email; emitir de nuevo pisa el
	// anterior.
	code := a.makeCode()
	if err := a.otp.Put(ctx, email, code, otpTTL); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your login OTP is %s. It is valid for 5 minutes.", code)
	if err := a.mailer.Send(email, "Your login OTP", body); err != nil {
		// sin correo no hay código utilizable: se limpia
		if derr := a.otp.Delete(ctx, email); derr != nil {
			logrus.WithError(derr).WithField("email", email).Warn("no se pudo limpiar el código tras fallo de correo")
		}
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return &dto.AuthResponse{
		Message: "OTP sent to your email",
		Role:    user.Role,
		User:    user,
	}, nil
}

// VerifyOTP canjea el código: un solo uso, consumido atómicamente. Un
// código equivocado no consume el pendiente.
func (a *AuthService) VerifyOTP(ctx context.Context, email, code string) (*dto.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	ok, found, err := a.otp.Consume(ctx, email, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOTPExpired
	}
	if !ok {
		return nil, ErrOTPMismatch
	}

	user, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	token, err := a.mintToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Message: "OTP verified successfully",
		Token:   token,
		Role:    user.Role,
		User:    user,
	}, nil
}

func (a *AuthService) mintToken(u *model.User) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID.Hex(),
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(a.secret)
}

// ValidateToken verifica firma y expiración y devuelve id + rol.
func (a *AuthService) ValidateToken(tokenStr string) (primitive.ObjectID, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return primitive.NilObjectID, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, "", errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	id, err := primitive.ObjectIDFromHex(sub)
	if err != nil || role == "" {
		return primitive.NilObjectID, "", errors.New("invalid token payload")
	}

	return id, role, nil
}

// GetProfile carga el principal completo (sin password vía tag json).
func (a *AuthService) GetProfile(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user, err := a.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return user, err
}
