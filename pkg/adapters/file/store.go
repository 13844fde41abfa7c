package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reliant/configurator/pkg/domain"
)

// Store implements ports.FlowStore and ports.CartStore using the local filesystem.
// Flows and carts are stored as JSON files under BasePath.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".configurator".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = ".configurator"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) sessionsDir() string { return filepath.Join(s.BasePath, "sessions") }
func (s *Store) cartsDir() string    { return filepath.Join(s.BasePath, "carts") }

// Save persists the flow to a JSON file atomically.
func (s *Store) Save(ctx context.Context, sessionID string, flow *domain.Flow) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	return writeJSON(s.sessionsDir(), sessionID, flow)
}

// Load retrieves the flow from its JSON file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Flow, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}
	var flow domain.Flow
	if err := readJSON(s.sessionsDir(), sessionID, &flow); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &flow, nil
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	return remove(s.sessionsDir(), sessionID)
}

// List returns all stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}
	return sessions, nil
}

// SaveCart persists the cart to a JSON file atomically.
func (s *Store) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == "" {
		return fmt.Errorf("cart ID cannot be empty")
	}
	return writeJSON(s.cartsDir(), cart.ID, cart)
}

// LoadCart retrieves a cart from its JSON file.
func (s *Store) LoadCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := readJSON(s.cartsDir(), cartID, &cart); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

// DeleteCart removes the cart file.
func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	return remove(s.cartsDir(), cartID)
}

// writeJSON writes to a temp file in the same directory, fsyncs it and renames it
// over the destination, so readers never observe a partial file.
func writeJSON(dir, id string, v any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(dir, "tmp-"+id+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	dest := filepath.Join(dir, id+".json")
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace %s: %w", id, err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func readJSON(dir, id string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}
	return nil
}

func remove(dir, id string) error {
	err := os.Remove(filepath.Join(dir, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}
