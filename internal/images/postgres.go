package images

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/JaimeStill/image-lab/pkg/database"
	"github.com/JaimeStill/image-lab/pkg/repository"
	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrations embed.FS

const selectImages = `
	SELECT id, original_name, extension, created_at, updated_at
	FROM images`

// pgMetadata keeps records in the images table.
type pgMetadata struct {
	db *sql.DB
}

// NewPostgresMetadata returns a MetadataStore backed by db.
// Call MigratePostgres first so the images table exists.
func NewPostgresMetadata(db *sql.DB) MetadataStore {
	return &pgMetadata{db: db}
}

// MigratePostgres applies the embedded schema migrations.
func MigratePostgres(db *sql.DB) error {
	return database.Migrate(db, migrations, "migrations")
}

func (m *pgMetadata) List(ctx context.Context) ([]Image, error) {
	q := selectImages + ` ORDER BY created_at, id`

	imgs, err := repository.QueryMany(ctx, m.db, q, nil, scanImage)
	if err != nil {
		return nil, fmt.Errorf("%w: query images: %v", ErrStorage, err)
	}
	return imgs, nil
}

func (m *pgMetadata) Find(ctx context.Context, id uuid.UUID) (*Image, error) {
	q := selectImages + ` WHERE id = $1`

	img, err := repository.QueryOne(ctx, m.db, q, []any{id}, scanImage)
	if err != nil {
		if mapped := repository.MapError(err, ErrNotFound, ErrDuplicate); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("%w: find image: %v", ErrStorage, err)
	}
	return &img, nil
}

func (m *pgMetadata) Save(ctx context.Context, img *Image) error {
	q := `
		INSERT INTO images (id, original_name, extension, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			original_name = EXCLUDED.original_name,
			extension     = EXCLUDED.extension,
			updated_at    = EXCLUDED.updated_at`

	_, err := m.db.ExecContext(ctx, q,
		img.ID, img.OriginalName, img.Extension, img.CreatedAt, img.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: save image: %v", ErrStorage, err)
	}
	return nil
}

func (m *pgMetadata) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: delete image: %v", ErrStorage, err)
	}
	return nil
}
