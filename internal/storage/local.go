package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LocalSignedPrefix is the route serving signed local downloads
const LocalSignedPrefix = "/storage/signed/"

// LocalPublicPrefix is the route serving authenticated local downloads
const LocalPublicPrefix = "/api/v1/storage/"

// LocalStorage implements Storage on the local filesystem. Signed URLs carry
// an HS256 token bound to the object path and verified by VerifySignedToken.
type LocalStorage struct {
	basePath      string
	publicBaseURL string
	signingKey    []byte
}

type signedObjectClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath, publicBaseURL, signingKey string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:      basePath,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		signingKey:    []byte(signingKey),
	}, nil
}

func (s *LocalStorage) fullPath(path string) (string, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

// Put writes an object. Without overwrite the file is created exclusively so
// an existing version is never replaced.
func (s *LocalStorage) Put(ctx context.Context, path, contentType string, data io.Reader, size int64, overwrite bool) error {
	fullPath, err := s.fullPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if !overwrite {
		file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%w: %s", ErrObjectExists, path)
			}
			return fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := io.Copy(file, data); err != nil {
			file.Close()
			os.Remove(fullPath)
			return fmt.Errorf("failed to write file: %w", err)
		}
		return file.Close()
	}

	// Write to a temp file and rename so readers never see a partial object
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Get opens an object for reading
func (s *LocalStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.fullPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an object; deleting a missing object is not an error
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.fullPath(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Exists reports whether an object is stored at path
func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := s.fullPath(path)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// Copy duplicates an object, replacing the destination
func (s *LocalStorage) Copy(ctx context.Context, srcPath, dstPath string) error {
	src, err := s.Get(ctx, srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	return s.Put(ctx, dstPath, "", src, -1, true)
}

// PublicURL returns the authenticated download route for path
func (s *LocalStorage) PublicURL(path string) string {
	return s.publicBaseURL + LocalPublicPrefix + escapePath(path)
}

// SignedURL returns a download URL that works without a session until ttl passes
func (s *LocalStorage) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	if len(s.signingKey) == 0 {
		return "", fmt.Errorf("local storage has no signing key")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, signedObjectClaims{
		Path: clean,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}

	return s.publicBaseURL + LocalSignedPrefix + escapePath(clean) + "?token=" + url.QueryEscape(signed), nil
}

// VerifySignedToken checks that token was issued by SignedURL for path and has not expired
func (s *LocalStorage) VerifySignedToken(path, token string) error {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}

	claims := &signedObjectClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid signed url token: %w", err)
	}
	if claims.Path != clean {
		return fmt.Errorf("invalid signed url token: path mismatch")
	}
	return nil
}

func escapePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
