package images

import "github.com/JaimeStill/image-lab/pkg/repository"

// scanImage reads an Image from a database row.
func scanImage(s repository.Scanner) (Image, error) {
	var img Image
	err := s.Scan(
		&img.ID,
		&img.OriginalName,
		&img.Extension,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	img.CreatedAt = img.CreatedAt.UTC()
	img.UpdatedAt = img.UpdatedAt.UTC()
	return img, err
}
