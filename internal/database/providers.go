package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backhaul/internal/model"
)

const providerColumns = `id, name, type, remote_name, region, bucket, endpoint,
	encrypted_access_key, encrypted_secret_key, is_active, created_at, updated_at, deleted_at`

func (s *SQLiteStore) CreateProvider(p *model.CloudProvider) error {
	_, err := s.db.Exec(`
		INSERT INTO cloud_providers (id, name, type, remote_name, region, bucket, endpoint,
			encrypted_access_key, encrypted_secret_key, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Type, p.RemoteName, p.Region, p.Bucket, p.Endpoint,
		p.EncryptedAccessKey, p.EncryptedSecretKey, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProvider(id string) (*model.CloudProvider, error) {
	return s.getProvider(`WHERE id = ?`, id)
}

func (s *SQLiteStore) GetProviderByName(name string) (*model.CloudProvider, error) {
	return s.getProvider(`WHERE name = ? AND deleted_at IS NULL`, name)
}

func (s *SQLiteStore) getProvider(where string, arg any) (*model.CloudProvider, error) {
	row := s.db.QueryRow(`SELECT `+providerColumns+` FROM cloud_providers `+where, arg)
	p, err := scanProvider(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding provider: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProviders() ([]*model.CloudProvider, error) {
	rows, err := s.db.Query(`
		SELECT ` + providerColumns + ` FROM cloud_providers WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing providers: %w", err)
	}
	defer rows.Close()

	var providers []*model.CloudProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (s *SQLiteStore) SoftDeleteProvider(id string, now time.Time) error {
	_, err := s.db.Exec(`
		UPDATE cloud_providers SET deleted_at = ?, is_active = 0, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("deleting provider: %w", err)
	}
	return nil
}

func scanProvider(r rowScanner) (*model.CloudProvider, error) {
	var p model.CloudProvider
	var deletedAt sql.NullTime
	if err := r.Scan(&p.ID, &p.Name, &p.Type, &p.RemoteName, &p.Region, &p.Bucket, &p.Endpoint,
		&p.EncryptedAccessKey, &p.EncryptedSecretKey, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}
	p.DeletedAt = timePtr(deletedAt)
	return &p, nil
}
