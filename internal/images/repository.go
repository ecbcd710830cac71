package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/image-lab/internal/processor"
	"github.com/JaimeStill/image-lab/pkg/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Options tunes the image system.
type Options struct {
	// BaseURL prefixes the derived url of every record. The record path
	// "/images/<id>" is appended to it.
	BaseURL string

	// JPEGQuality is used whenever a pipeline renders JPEG output.
	JPEGQuality int

	// MaxDimension bounds the width and height a resize may produce.
	MaxDimension int
}

type repo struct {
	blobs   storage.System
	meta    MetadataStore
	locks   *idLocks
	logger  *slog.Logger
	baseURL string
	decode  []processor.Option
	now     func() time.Time
}

// New creates a new image management system.
func New(
	blobs storage.System,
	meta MetadataStore,
	logger *slog.Logger,
	opts Options,
) System {
	return &repo{
		blobs:   blobs,
		meta:    meta,
		locks:   newIDLocks(),
		logger:  logger.With("system", "images"),
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		decode:  decodeOptions(opts),
		now:     time.Now,
	}
}

func decodeOptions(opts Options) []processor.Option {
	return []processor.Option{
		processor.WithJPEGQuality(opts.JPEGQuality),
		processor.WithMaxDimension(opts.MaxDimension),
	}
}

func (r *repo) List(ctx context.Context) ([]Image, error) {
	imgs, err := r.meta.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range imgs {
		imgs[i].URL = r.url(imgs[i].ID)
	}
	return imgs, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Image, error) {
	img, err := r.meta.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.present(img), nil
}

func (r *repo) Show(ctx context.Context, id uuid.UUID, params ShowParams, accept string) (*Rendered, error) {
	img, p, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	sel := Select(params, accept)
	p, err = sel.Apply(p)
	if err != nil {
		return nil, transformError(err)
	}

	data, err := p.Render()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", img.ID, err)
	}

	r.logger.Debug("image rendered", "id", id, "op", sel.Op, "format", p.Format())

	return &Rendered{
		Data:        data,
		ContentType: p.MIME(),
		Op:          sel.Op,
	}, nil
}

func (r *repo) Download(ctx context.Context, id uuid.UUID) (*Rendered, error) {
	img, err := r.meta.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := r.retrieve(ctx, img)
	if err != nil {
		return nil, err
	}

	return &Rendered{
		Data:        data,
		ContentType: mimetype.Detect(data).String(),
		Filename:    img.OriginalName,
		Image:       r.present(img),
	}, nil
}

func (r *repo) Create(ctx context.Context, upload Upload) (*Image, error) {
	ext, err := sniff(upload.Data)
	if err != nil {
		return nil, err
	}

	img := newImage(uuid.New(), upload.Name, ext, r.now())

	release := r.locks.lock(img.ID)
	defer release()

	if err := r.store(ctx, img, upload.Data); err != nil {
		return nil, err
	}
	if err := r.meta.Save(ctx, img); err != nil {
		return nil, err
	}

	r.logger.Info("image created", "id", img.ID, "name", img.OriginalName, "extension", img.Extension)
	return r.present(img), nil
}

func (r *repo) Replace(ctx context.Context, id uuid.UUID, upload Upload) (*Image, error) {
	ext, err := sniff(upload.Data)
	if err != nil {
		return nil, err
	}

	release := r.locks.lock(id)
	defer release()

	img, err := r.meta.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.deleteBlob(ctx, img); err != nil {
		return nil, err
	}

	img.Fill(Patch{OriginalName: &upload.Name, Extension: &ext}, r.now())

	if err := r.store(ctx, img, upload.Data); err != nil {
		return nil, err
	}
	if err := r.meta.Save(ctx, img); err != nil {
		return nil, err
	}

	r.logger.Info("image replaced", "id", img.ID, "name", img.OriginalName, "extension", img.Extension)
	return r.present(img), nil
}

func (r *repo) Resize(ctx context.Context, id uuid.UUID, params ResizeParams) (*Rendered, error) {
	return r.mutate(ctx, id, OpResize, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Resize(params.Width, params.Height)
	})
}

func (r *repo) Crop(ctx context.Context, id uuid.UUID, params CropParams) (*Rendered, error) {
	return r.mutate(ctx, id, OpCrop, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Crop(params.Width, params.Height, params.X, params.Y)
	})
}

func (r *repo) Greyscale(ctx context.Context, id uuid.UUID) (*Rendered, error) {
	return r.mutate(ctx, id, OpGreyscale, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Greyscale(), nil
	})
}

func (r *repo) Opacity(ctx context.Context, id uuid.UUID, percent int) (*Rendered, error) {
	return r.mutate(ctx, id, OpOpacity, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Opacity(percent), nil
	})
}

func (r *repo) Brightness(ctx context.Context, id uuid.UUID, delta int) (*Rendered, error) {
	return r.mutate(ctx, id, OpBrightness, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Brightness(delta), nil
	})
}

func (r *repo) Rotate(ctx context.Context, id uuid.UUID, degrees float64) (*Rendered, error) {
	return r.mutate(ctx, id, OpRotate, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Rotate(degrees), nil
	})
}

func (r *repo) Insert(ctx context.Context, id uuid.UUID, overlay []byte, position processor.Position) (*Rendered, error) {
	return r.mutate(ctx, id, OpInsert, func(p processor.Pipeline) (processor.Pipeline, error) {
		out, err := p.Insert(overlay, position)
		if errors.Is(err, processor.ErrDecode) {
			return p, fieldError(FieldFile, "must be a decodable image")
		}
		return out, err
	})
}

func (r *repo) Encode(ctx context.Context, id uuid.UUID, format processor.Format) (*Rendered, error) {
	return r.mutate(ctx, id, OpEncode, func(p processor.Pipeline) (processor.Pipeline, error) {
		return p.Encode(format), nil
	})
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	release := r.locks.lock(id)
	defer release()

	if _, err := r.meta.Find(ctx, id); err != nil {
		return err
	}

	if err := r.blobs.DeletePrefix(ctx, Dir(id)); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrDeleteFailed, id, err)
	}
	if err := r.meta.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	r.logger.Info("image deleted", "id", id)
	return nil
}

// mutate applies one operation to the stored image while holding the id
// lock. The old blob is removed before the new one is written, and the
// metadata is saved last. Encode also rebuilds the original name around
// the new extension.
func (r *repo) mutate(
	ctx context.Context,
	id uuid.UUID,
	op Operation,
	apply func(processor.Pipeline) (processor.Pipeline, error),
) (*Rendered, error) {
	release := r.locks.lock(id)
	defer release()

	img, p, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err = apply(p)
	if err != nil {
		return nil, transformError(err)
	}

	data, err := p.Render()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}

	if err := r.deleteBlob(ctx, img); err != nil {
		return nil, err
	}

	ext := p.Extension()
	patch := Patch{Extension: &ext}
	if op == OpEncode {
		name := renameExtension(img.OriginalName, ext)
		patch.OriginalName = &name
	}
	img.Fill(patch, r.now())

	if err := r.store(ctx, img, data); err != nil {
		return nil, err
	}
	if err := r.meta.Save(ctx, img); err != nil {
		return nil, err
	}

	r.logger.Info("image updated", "id", id, "op", op, "extension", img.Extension)

	return &Rendered{
		Data:        data,
		ContentType: p.MIME(),
		Op:          op,
		Image:       r.present(img),
	}, nil
}

// load finds the record, then reads and decodes its blob.
func (r *repo) load(ctx context.Context, id uuid.UUID) (*Image, processor.Pipeline, error) {
	img, err := r.meta.Find(ctx, id)
	if err != nil {
		return nil, processor.Pipeline{}, err
	}

	data, err := r.retrieve(ctx, img)
	if err != nil {
		return nil, processor.Pipeline{}, err
	}

	p, err := processor.Decode(data, r.decode...)
	if err != nil {
		return nil, processor.Pipeline{}, fmt.Errorf("%w: %s: %v", ErrDecode, id, err)
	}

	return img, p, nil
}

func (r *repo) retrieve(ctx context.Context, img *Image) ([]byte, error) {
	data, err := r.blobs.Retrieve(ctx, img.StorageKey())
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, img.StorageKey(), err)
	}
	return data, nil
}

func (r *repo) store(ctx context.Context, img *Image, data []byte) error {
	if err := r.blobs.Store(ctx, img.StorageKey(), data); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, img.StorageKey(), err)
	}
	return nil
}

func (r *repo) deleteBlob(ctx context.Context, img *Image) error {
	if err := r.blobs.Delete(ctx, img.StorageKey()); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStorage, img.StorageKey(), err)
	}
	return nil
}

func (r *repo) present(img *Image) *Image {
	out := *img
	out.URL = r.url(img.ID)
	return &out
}

func (r *repo) url(id uuid.UUID) string {
	return r.baseURL + "/images/" + id.String()
}

// sniff derives the stored extension from the upload content and rejects
// anything that is not a decodable image.
func sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fieldError(FieldFile, "is required")
	}

	kind, _, _ := strings.Cut(mimetype.Detect(data).String(), "/")
	if kind != "image" {
		return "", fieldError(FieldFile, "must be an image")
	}

	// The decoded format names the blob so variants such as APNG keep the
	// extension of the codec that reads them.
	p, err := processor.Decode(data)
	if err != nil {
		return "", fieldError(FieldFile, "must be a decodable image")
	}

	return p.Extension(), nil
}

// transformError reports out-of-contract geometry as a validation failure.
func transformError(err error) error {
	switch {
	case errors.Is(err, processor.ErrEmptyRegion):
		return fieldError(FieldX, "crop region lies outside the image")
	case errors.Is(err, processor.ErrTooLarge):
		return fieldError(FieldWidth, "resized output exceeds the maximum dimension")
	case errors.Is(err, processor.ErrInvalidDimensions):
		return fieldError(FieldWidth, "width and height cannot both be 0")
	case errors.Is(err, processor.ErrUnsupportedFormat):
		return fieldError(FieldFormat, err.Error())
	default:
		return err
	}
}
